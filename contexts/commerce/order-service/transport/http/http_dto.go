package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type BuyerAccountDTO struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

type AccountResponse struct {
	Status string `json:"status"`
	Data   struct {
		Account BuyerAccountDTO `json:"account"`
	} `json:"data"`
}

type ListAccountsResponse struct {
	Status string `json:"status"`
	Data   struct {
		Accounts []BuyerAccountDTO `json:"accounts"`
	} `json:"data"`
}
