package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"gatekeeper/contexts/identity-access/account-service/application"
	"gatekeeper/contexts/identity-access/account-service/domain/entities"
	httptransport "gatekeeper/contexts/identity-access/account-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) RegisterHandler(ctx context.Context, req httptransport.RegisterRequest) (httptransport.RegisterResponse, error) {
	profile, err := h.Service.Register(ctx, application.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return httptransport.RegisterResponse{}, err
	}
	resp := httptransport.RegisterResponse{Status: "success"}
	resp.Data.Profile = toProfileDTO(profile)
	return resp, nil
}

func (h Handler) LoginHandler(ctx context.Context, req httptransport.LoginRequest) (httptransport.LoginResponse, error) {
	pair, err := h.Service.Login(ctx, application.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return httptransport.LoginResponse{}, err
	}
	resp := httptransport.LoginResponse{Status: "success"}
	resp.Data.Tokens = toTokenPairDTO(pair)
	return resp, nil
}

func (h Handler) RefreshHandler(ctx context.Context, req httptransport.RefreshRequest) (httptransport.LoginResponse, error) {
	pair, err := h.Service.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return httptransport.LoginResponse{}, err
	}
	resp := httptransport.LoginResponse{Status: "success"}
	resp.Data.Tokens = toTokenPairDTO(pair)
	return resp, nil
}

func (h Handler) GetProfileHandler(ctx context.Context, userID int64) (httptransport.ProfileResponse, error) {
	profile, err := h.Service.GetProfile(ctx, userID)
	if err != nil {
		return httptransport.ProfileResponse{}, err
	}
	resp := httptransport.ProfileResponse{Status: "success"}
	resp.Data.Profile = toProfileDTO(profile)
	return resp, nil
}

func (h Handler) ListProfilesHandler(ctx context.Context) (httptransport.ListProfilesResponse, error) {
	profiles, err := h.Service.ListProfiles(ctx)
	if err != nil {
		return httptransport.ListProfilesResponse{}, err
	}
	resp := httptransport.ListProfilesResponse{Status: "success"}
	resp.Data.Profiles = make([]httptransport.ProfileDTO, 0, len(profiles))
	for _, profile := range profiles {
		resp.Data.Profiles = append(resp.Data.Profiles, toProfileDTO(profile))
	}
	return resp, nil
}

func (h Handler) RequestPasswordResetHandler(ctx context.Context, req httptransport.PasswordResetRequest) (httptransport.AcceptedResponse, error) {
	if err := h.Service.RequestPasswordReset(ctx, req.Email); err != nil {
		return httptransport.AcceptedResponse{}, err
	}
	return httptransport.AcceptedResponse{Status: "accepted"}, nil
}

func (h Handler) ConfirmPasswordResetHandler(ctx context.Context, req httptransport.PasswordResetConfirmRequest) (httptransport.AcceptedResponse, error) {
	if err := h.Service.ConfirmPasswordReset(ctx, req.Token, req.NewPassword); err != nil {
		return httptransport.AcceptedResponse{}, err
	}
	return httptransport.AcceptedResponse{Status: "success"}, nil
}

func (h Handler) RequestEmailVerificationHandler(ctx context.Context, req httptransport.EmailVerificationRequest) (httptransport.AcceptedResponse, error) {
	if err := h.Service.RequestEmailVerification(ctx, req.Email); err != nil {
		return httptransport.AcceptedResponse{}, err
	}
	return httptransport.AcceptedResponse{Status: "accepted"}, nil
}

func (h Handler) ConfirmEmailVerificationHandler(ctx context.Context, req httptransport.EmailVerificationConfirmRequest) (httptransport.AcceptedResponse, error) {
	if err := h.Service.ConfirmEmailVerification(ctx, req.Token); err != nil {
		return httptransport.AcceptedResponse{}, err
	}
	return httptransport.AcceptedResponse{Status: "success"}, nil
}

func toProfileDTO(profile entities.Profile) httptransport.ProfileDTO {
	return httptransport.ProfileDTO{
		UserID:        profile.UserID,
		Username:      profile.Username,
		Email:         profile.Email,
		EmailVerified: profile.EmailVerified,
		CreatedAt:     profile.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toTokenPairDTO(pair entities.TokenPair) httptransport.TokenPairDTO {
	return httptransport.TokenPairDTO{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt.UTC().Format(time.RFC3339),
		RefreshExpiresAt: pair.RefreshExpiresAt.UTC().Format(time.RFC3339),
		TokenType:        "Bearer",
	}
}
