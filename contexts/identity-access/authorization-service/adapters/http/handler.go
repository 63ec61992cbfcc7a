package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"gatekeeper/contexts/identity-access/authorization-service/application"
	"gatekeeper/contexts/identity-access/authorization-service/domain/entities"
	httptransport "gatekeeper/contexts/identity-access/authorization-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) GrantRoleHandler(ctx context.Context, userID int64, req httptransport.GrantRoleRequest, grantedBy string) (httptransport.GrantRoleResponse, error) {
	assignment, err := h.Service.GrantRole(ctx, userID, req.RoleID, grantedBy)
	if err != nil {
		return httptransport.GrantRoleResponse{}, err
	}
	resp := httptransport.GrantRoleResponse{Status: "success"}
	resp.Data.Assignment = toAssignmentDTO(assignment)
	return resp, nil
}

func (h Handler) RevokeRoleHandler(ctx context.Context, userID int64, roleID string) (httptransport.RevokeRoleResponse, error) {
	if err := h.Service.RevokeRole(ctx, userID, roleID); err != nil {
		return httptransport.RevokeRoleResponse{}, err
	}
	return httptransport.RevokeRoleResponse{Status: "success"}, nil
}

func (h Handler) ListUserRolesHandler(ctx context.Context, userID int64) (httptransport.UserRolesResponse, error) {
	assignments, err := h.Service.ListUserRoles(ctx, userID)
	if err != nil {
		return httptransport.UserRolesResponse{}, err
	}
	resp := httptransport.UserRolesResponse{Status: "success"}
	resp.Data.Roles = make([]httptransport.RoleAssignmentDTO, 0, len(assignments))
	for _, assignment := range assignments {
		resp.Data.Roles = append(resp.Data.Roles, toAssignmentDTO(assignment))
	}
	return resp, nil
}

func toAssignmentDTO(assignment entities.RoleAssignment) httptransport.RoleAssignmentDTO {
	return httptransport.RoleAssignmentDTO{
		UserID:    assignment.UserID,
		RoleID:    assignment.RoleID,
		GrantedBy: assignment.GrantedBy,
		GrantedAt: assignment.GrantedAt.UTC().Format(time.RFC3339),
	}
}
