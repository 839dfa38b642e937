package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"stakevault/core"
	"stakevault/core/types"
	"stakevault/native/stake"
)

type transferResult struct {
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
	Token     string `json:"token"`
}

type receiptResult struct {
	Amount       string              `json:"amount,omitempty"`
	Transfers    []transferResult    `json:"transfers,omitempty"`
	Events       []*types.Event      `json:"events,omitempty"`
	Notification *notificationResult `json:"notification,omitempty"`
}

type notificationResult struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Balance   string `json:"balance"`
	Memo      string `json:"memo,omitempty"`
}

func formatReceipt(receipt *core.Receipt) *receiptResult {
	out := &receiptResult{Events: receipt.Events}
	if receipt.Amount != nil {
		out.Amount = receipt.Amount.String()
	}
	for _, transfer := range receipt.Transfers {
		out.Transfers = append(out.Transfers, transferResult{
			Recipient: common.BytesToAddress(transfer.Recipient[:]).Hex(),
			Amount:    transfer.Amount.String(),
			Token:     common.BytesToAddress(transfer.Token[:]).Hex(),
		})
	}
	if receipt.Notification != nil {
		out.Notification = &notificationResult{
			Sender:    common.BytesToAddress(receipt.Notification.Sender[:]).Hex(),
			Recipient: common.BytesToAddress(receipt.Notification.Recipient[:]).Hex(),
			Balance:   receipt.Notification.Balance.String(),
			Memo:      receipt.Notification.Memo,
		}
	}
	return out
}

func decodeParams(req *RPCRequest, target interface{}) error {
	if len(req.Params) == 0 {
		return fmt.Errorf("params object required")
	}
	if err := json.Unmarshal(req.Params[0], target); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}

func parseAddr(field, value string) ([20]byte, error) {
	if !common.IsHexAddress(value) {
		return [20]byte{}, fmt.Errorf("%s must be a hex address", field)
	}
	return common.HexToAddress(value), nil
}

func parseAmount(value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must be a non-negative decimal string")
	}
	return amount, nil
}

func (s *Server) handleReceive(req *RPCRequest) (interface{}, error) {
	var params struct {
		Token   string `json:"token"`
		Sender  string `json:"sender"`
		Amount  string `json:"amount"`
		Receive string `json:"receive"`
		Memo    string `json:"memo"`
	}
	if err := decodeParams(req, &params); err != nil {
		return nil, fmt.Errorf("%w: %v", stake.ErrInvalidAmount, err)
	}
	token, err := parseAddr("token", params.Token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", stake.ErrNotStakeToken, err)
	}
	sender, err := parseAddr("sender", params.Sender)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", stake.ErrInvalidAmount, err)
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", stake.ErrInvalidAmount, err)
	}
	receiveType, err := stake.ParseReceiveType(params.Receive)
	if err != nil {
		return nil, err
	}
	receipt, err := s.ledger.Receive(token, sender, amount, receiveType, params.Memo)
	if err != nil {
		return nil, err
	}
	return formatReceipt(receipt), nil
}

func (s *Server) handleUnbond(req *RPCRequest) (interface{}, error) {
	var params struct {
		Caller string `json:"caller"`
		Amount string `json:"amount"`
	}
	if err := decodeParams(req, &params); err != nil {
		return nil, fmt.Errorf("%w: %v", stake.ErrInvalidAmount, err)
	}
	caller, err := parseAddr("caller", params.Caller)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", stake.ErrInvalidAmount, err)
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", stake.ErrInvalidAmount, err)
	}
	receipt, err := s.ledger.Unbond(caller, amount)
	if err != nil {
		return nil, err
	}
	return formatReceipt(receipt), nil
}

func (s *Server) callerOnly(req *RPCRequest, call func([20]byte) (*core.Receipt, error)) (interface{}, error) {
	var params struct {
		Caller string `json:"caller"`
	}
	if err := decodeParams(req, &params); err != nil {
		return nil, fmt.Errorf("%w: %v", stake.ErrInvalidAmount, err)
	}
	caller, err := parseAddr("caller", params.Caller)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", stake.ErrInvalidAmount, err)
	}
	receipt, err := call(caller)
	if err != nil {
		return nil, err
	}
	return formatReceipt(receipt), nil
}

func (s *Server) handleClaimUnbond(req *RPCRequest) (interface{}, error) {
	return s.callerOnly(req, s.ledger.ClaimUnbond)
}

func (s *Server) handleClaimRewards(req *RPCRequest) (interface{}, error) {
	return s.callerOnly(req, s.ledger.ClaimRewards)
}

func (s *Server) handleStakeRewards(req *RPCRequest) (interface{}, error) {
	return s.callerOnly(req, s.ledger.StakeRewards)
}

func (s *Server) handleUpdateConfig(req *RPCRequest) (interface{}, error) {
	var params struct {
		Caller          string  `json:"caller"`
		UnbondSeconds   *uint64 `json:"unbondSeconds"`
		DisableTreasury bool    `json:"disableTreasury"`
		Treasury        *string `json:"treasury"`
	}
	if err := decodeParams(req, &params); err != nil {
		return nil, fmt.Errorf("%w: %v", stake.ErrInvalidAmount, err)
	}
	caller, err := parseAddr("caller", params.Caller)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", stake.ErrInvalidAmount, err)
	}
	var treasury *[20]byte
	if params.Treasury != nil {
		addr, err := parseAddr("treasury", *params.Treasury)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", stake.ErrInvalidAmount, err)
		}
		treasury = &addr
	}
	receipt, err := s.ledger.UpdateStakeConfig(caller, params.UnbondSeconds, params.DisableTreasury, treasury)
	if err != nil {
		return nil, err
	}
	return formatReceipt(receipt), nil
}

func (s *Server) distributorsMutation(req *RPCRequest, call func([20]byte, [][20]byte) (*core.Receipt, error)) (interface{}, error) {
	var params struct {
		Caller       string   `json:"caller"`
		Distributors []string `json:"distributors"`
	}
	if err := decodeParams(req, &params); err != nil {
		return nil, fmt.Errorf("%w: %v", stake.ErrInvalidAmount, err)
	}
	caller, err := parseAddr("caller", params.Caller)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", stake.ErrInvalidAmount, err)
	}
	addrs := make([][20]byte, 0, len(params.Distributors))
	for _, raw := range params.Distributors {
		addr, err := parseAddr("distributors", raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", stake.ErrInvalidAmount, err)
		}
		addrs = append(addrs, addr)
	}
	receipt, err := call(caller, addrs)
	if err != nil {
		return nil, err
	}
	return formatReceipt(receipt), nil
}

func (s *Server) handleSetDistributors(req *RPCRequest) (interface{}, error) {
	return s.distributorsMutation(req, s.ledger.SetDistributors)
}

func (s *Server) handleAddDistributors(req *RPCRequest) (interface{}, error) {
	return s.distributorsMutation(req, s.ledger.AddDistributors)
}

func (s *Server) handleSetDistributorsStatus(req *RPCRequest) (interface{}, error) {
	var params struct {
		Caller  string `json:"caller"`
		Enabled bool   `json:"enabled"`
	}
	if err := decodeParams(req, &params); err != nil {
		return nil, fmt.Errorf("%w: %v", stake.ErrInvalidAmount, err)
	}
	caller, err := parseAddr("caller", params.Caller)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", stake.ErrInvalidAmount, err)
	}
	receipt, err := s.ledger.SetDistributorsStatus(caller, params.Enabled)
	if err != nil {
		return nil, err
	}
	return formatReceipt(receipt), nil
}

func (s *Server) handleExposeBalance(req *RPCRequest) (interface{}, error) {
	var params struct {
		Caller    string `json:"caller"`
		Recipient string `json:"recipient"`
		Memo      string `json:"memo"`
	}
	if err := decodeParams(req, &params); err != nil {
		return nil, fmt.Errorf("%w: %v", stake.ErrInvalidAmount, err)
	}
	caller, err := parseAddr("caller", params.Caller)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", stake.ErrInvalidAmount, err)
	}
	recipient, err := parseAddr("recipient", params.Recipient)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", stake.ErrInvalidAmount, err)
	}
	receipt, err := s.ledger.ExposeBalance(caller, recipient, params.Memo)
	if err != nil {
		return nil, err
	}
	return formatReceipt(receipt), nil
}

type configResult struct {
	UnbondSeconds     uint64 `json:"unbondSeconds"`
	StakedToken       string `json:"stakedToken"`
	DecimalDifference uint8  `json:"decimalDifference"`
	Treasury          string `json:"treasury,omitempty"`
}

func (s *Server) handleGetConfig(req *RPCRequest) (interface{}, error) {
	cfg, err := s.ledger.Engine().Config()
	if err != nil {
		return nil, err
	}
	result := &configResult{
		UnbondSeconds:     cfg.UnbondSeconds,
		StakedToken:       common.BytesToAddress(cfg.StakedToken[:]).Hex(),
		DecimalDifference: cfg.DecimalDifference,
	}
	if treasury, ok := cfg.TreasuryAddress(); ok {
		result.Treasury = common.BytesToAddress(treasury[:]).Hex()
	}
	return result, nil
}

func (s *Server) handleTotalStaked(req *RPCRequest) (interface{}, error) {
	tokens, shares, err := s.ledger.Engine().TotalStaked()
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"totalTokens": tokens.String(),
		"totalShares": shares.String(),
	}, nil
}

func (s *Server) handleStakeRate(req *RPCRequest) (interface{}, error) {
	rate, err := s.ledger.Engine().StakeRate()
	if err != nil {
		return nil, err
	}
	return map[string]string{"sharesPerToken": rate.String()}, nil
}

func (s *Server) handleUnbonding(req *RPCRequest) (interface{}, error) {
	var params struct {
		Start uint64 `json:"start"`
		End   uint64 `json:"end"`
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params[0], &params); err != nil {
			return nil, fmt.Errorf("%w: invalid window", stake.ErrInvalidAmount)
		}
	}
	total, err := s.ledger.Engine().Unbonding(params.Start, params.End)
	if err != nil {
		return nil, err
	}
	return map[string]string{"total": total.String()}, nil
}

func (s *Server) handleUnfunded(req *RPCRequest) (interface{}, error) {
	var params struct {
		FromDay uint64 `json:"fromDay"`
		Limit   int    `json:"limit"`
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params[0], &params); err != nil {
			return nil, fmt.Errorf("%w: invalid window", stake.ErrInvalidAmount)
		}
	}
	if params.Limit == 0 {
		params.Limit = 30
	}
	total, err := s.ledger.Engine().Unfunded(params.FromDay, params.Limit)
	if err != nil {
		return nil, err
	}
	return map[string]string{"total": total.String()}, nil
}

type stakedResult struct {
	Tokens         string `json:"tokens"`
	Shares         string `json:"shares"`
	PendingRewards string `json:"pendingRewards"`
	Unbonding      string `json:"unbonding"`
	Unbonded       string `json:"unbonded,omitempty"`
}

func (s *Server) handleStaked(req *RPCRequest) (interface{}, error) {
	var params struct {
		Account string  `json:"account"`
		AsOf    *uint64 `json:"asOf"`
	}
	if err := decodeParams(req, &params); err != nil {
		return nil, fmt.Errorf("%w: %v", stake.ErrInvalidAmount, err)
	}
	account, err := parseAddr("account", params.Account)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", stake.ErrInvalidAmount, err)
	}
	info, err := s.ledger.Engine().Staked(account, params.AsOf)
	if err != nil {
		return nil, err
	}
	result := &stakedResult{
		Tokens:         info.Tokens.String(),
		Shares:         info.Shares.String(),
		PendingRewards: info.PendingRewards.String(),
		Unbonding:      info.Unbonding.String(),
	}
	if info.Unbonded != nil {
		result.Unbonded = info.Unbonded.String()
	}
	return result, nil
}

func (s *Server) handleDistributors(req *RPCRequest) (interface{}, error) {
	addrs, enabled, err := s.ledger.Engine().DistributorList()
	if err != nil {
		return nil, err
	}
	list := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		list = append(list, common.BytesToAddress(addr[:]).Hex())
	}
	return map[string]interface{}{
		"distributors": list,
		"enabled":      enabled,
	}, nil
}

type historyEntryResult struct {
	Kind      string `json:"kind"`
	Amount    string `json:"amount"`
	Memo      string `json:"memo,omitempty"`
	Timestamp uint64 `json:"timestamp"`
}

func (s *Server) handleHistory(req *RPCRequest) (interface{}, error) {
	var params struct {
		Account string `json:"account"`
		Page    int    `json:"page"`
		PerPage int    `json:"perPage"`
	}
	if err := decodeParams(req, &params); err != nil {
		return nil, fmt.Errorf("%w: %v", stake.ErrInvalidAmount, err)
	}
	account, err := parseAddr("account", params.Account)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", stake.ErrInvalidAmount, err)
	}
	if params.PerPage <= 0 {
		params.PerPage = 20
	}
	entries, total, err := s.ledger.State().History(account, params.Page, params.PerPage)
	if err != nil {
		return nil, err
	}
	results := make([]historyEntryResult, 0, len(entries))
	for _, entry := range entries {
		results = append(results, historyEntryResult{
			Kind:      entry.Kind,
			Amount:    entry.Amount.String(),
			Memo:      entry.Memo,
			Timestamp: entry.Timestamp,
		})
	}
	return map[string]interface{}{
		"entries": results,
		"total":   total,
	}, nil
}
