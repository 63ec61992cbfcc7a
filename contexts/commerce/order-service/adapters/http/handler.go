package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"gatekeeper/contexts/commerce/order-service/application"
	"gatekeeper/contexts/commerce/order-service/domain/entities"
	httptransport "gatekeeper/contexts/commerce/order-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) GetAccountHandler(ctx context.Context, userID int64) (httptransport.AccountResponse, error) {
	account, err := h.Service.GetAccount(ctx, userID)
	if err != nil {
		return httptransport.AccountResponse{}, err
	}
	resp := httptransport.AccountResponse{Status: "success"}
	resp.Data.Account = toAccountDTO(account)
	return resp, nil
}

func (h Handler) ListAccountsHandler(ctx context.Context) (httptransport.ListAccountsResponse, error) {
	accounts, err := h.Service.ListAccounts(ctx)
	if err != nil {
		return httptransport.ListAccountsResponse{}, err
	}
	resp := httptransport.ListAccountsResponse{Status: "success"}
	resp.Data.Accounts = make([]httptransport.BuyerAccountDTO, 0, len(accounts))
	for _, account := range accounts {
		resp.Data.Accounts = append(resp.Data.Accounts, toAccountDTO(account))
	}
	return resp, nil
}

func toAccountDTO(account entities.BuyerAccount) httptransport.BuyerAccountDTO {
	return httptransport.BuyerAccountDTO{
		UserID:    account.UserID,
		Username:  account.Username,
		Email:     account.Email,
		Status:    account.Status,
		CreatedAt: account.CreatedAt.UTC().Format(time.RFC3339),
	}
}
