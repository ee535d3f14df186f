package usecase

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Mavimarmara/likeme-back-end-sub002/internal/apperr"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/domain/model"
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/logging"
	repo "github.com/Mavimarmara/likeme-back-end-sub002/internal/repository"

	"github.com/samber/lo"
)

// 管理者によるユーザー管理（一覧・権限/有効フラグ変更）。
type AdminUserUsecase struct {
	users repo.UserRepository
	audit repo.AuditLogRepository
	log   *slog.Logger
}

func NewAdminUserUsecase(users repo.UserRepository, audit repo.AuditLogRepository) *AdminUserUsecase {
	return &AdminUserUsecase{
		users: users,
		audit: audit,
		log:   logging.New("admin_user"),
	}
}

type AdminUpdateUserInput struct {
	Role     *string
	IsActive *bool
}

type UserListOutput struct {
	Items []UserDTO `json:"items"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

func (u *AdminUserUsecase) ListUsers(ctx context.Context, page int, limit int) (UserListOutput, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	users, total, err := u.users.List(ctx, page, limit)
	if err != nil {
		return UserListOutput{}, apperr.Unexpected(err)
	}

	items := lo.Map(users, func(m model.User, _ int) UserDTO {
		return toUserDTO(&m)
	})

	return UserListOutput{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// UpdateUserはroleとis_activeだけを変更できる。
// 自分自身の権限降格・停止は不可。
func (u *AdminUserUsecase) UpdateUser(ctx context.Context, actorUserID int64, targetUserID int64, in AdminUpdateUserInput) (UserDTO, error) {
	if targetUserID <= 0 {
		return UserDTO{}, apperr.Validation("invalid user id")
	}
	if in.Role == nil && in.IsActive == nil {
		return UserDTO{}, apperr.Validation("nothing to update")
	}
	if actorUserID == targetUserID {
		return UserDTO{}, apperr.Validation("cannot modify own account")
	}

	user, err := u.users.FindByID(ctx, targetUserID)
	if err != nil {
		return UserDTO{}, apperr.Unexpected(err)
	}
	if user == nil {
		return UserDTO{}, apperr.NotFound("user not found")
	}

	before := toUserDTO(user)

	if in.Role != nil {
		switch model.Role(*in.Role) {
		case model.RoleUser, model.RoleAdmin:
			user.Role = model.Role(*in.Role)
		default:
			return UserDTO{}, apperr.Validation("invalid role")
		}
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}

	if err := u.users.Update(ctx, user); err != nil {
		return UserDTO{}, apperr.Unexpected(err)
	}

	after := toUserDTO(user)
	u.writeAudit(ctx, actorUserID, targetUserID, before, after)

	return after, nil
}

func (u *AdminUserUsecase) writeAudit(ctx context.Context, actorUserID int64, targetUserID int64, before UserDTO, after UserDTO) {
	beforeJSON, _ := json.Marshal(before)
	afterJSON, _ := json.Marshal(after)

	log := model.AuditLog{
		ActorUserID:  actorUserID,
		Action:       model.AuditActionUpdateUser,
		ResourceType: model.AuditResourceUser,
		ResourceID:   targetUserID,
		BeforeJSON:   string(beforeJSON),
		AfterJSON:    string(afterJSON),
	}
	if err := u.audit.Create(ctx, log); err != nil {
		u.log.Warn("write audit log failed", "user_id", targetUserID, "error", err)
	}
}
