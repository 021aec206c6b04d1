package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"chezben/internal/domain"
	"chezben/internal/models"
	"chezben/internal/repository"

	"go.uber.org/zap"
)

type ProfileUpdate struct {
	FullName *string
	Phone    *string
	City     *string
	Bio      *string
}

// PublicProfile is what other users see of an account.
type PublicProfile struct {
	ID            uint   `json:"id"`
	FullName      string `json:"full_name"`
	City          string `json:"city"`
	Bio           string `json:"bio"`
	AvatarURL     string `json:"avatar_url"`
	MemberSince   string `json:"member_since"`
	ListingsCount int64  `json:"listings_count"`
}

type UserService struct {
	users    *repository.UserRepository
	listings *repository.ListingRepository
	admin    *repository.AdminRepository
	images   ImageStore
	folder   string
	log      *zap.Logger
}

func NewUserService(users *repository.UserRepository, listings *repository.ListingRepository, admin *repository.AdminRepository, images ImageStore, folder string, log *zap.Logger) *UserService {
	return &UserService{users: users, listings: listings, admin: admin, images: images, folder: folder, log: log}
}

func (s *UserService) Me(ctx context.Context, caller domain.Caller) (*models.User, error) {
	u, err := s.users.GetByID(caller.UserID)
	if err != nil {
		return nil, notFoundAs(err, "user")
	}
	return u, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, caller domain.Caller, in ProfileUpdate) (*models.User, error) {
	u, err := s.Me(ctx, caller)
	if err != nil {
		return nil, err
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		if phone != "" && !domain.ValidPhone(phone) {
			return nil, invalid("invalid phone number")
		}
		u.Phone = phone
	}
	if in.FullName != nil {
		u.FullName = strings.TrimSpace(*in.FullName)
	}
	if err := s.users.Update(u); err != nil {
		return nil, err
	}
	if u.Profile != nil && (in.City != nil || in.Bio != nil) {
		if in.City != nil {
			u.Profile.City = strings.TrimSpace(*in.City)
		}
		if in.Bio != nil {
			u.Profile.Bio = *in.Bio
		}
		if err := s.users.UpdateProfile(u.Profile); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// UploadAvatar stores a new avatar image and replaces the previous one.
func (s *UserService) UploadAvatar(ctx context.Context, caller domain.Caller, file io.Reader) (*models.User, error) {
	u, err := s.Me(ctx, caller)
	if err != nil {
		return nil, err
	}
	if u.Profile == nil {
		return nil, fmt.Errorf("%w: profile not found", domain.ErrNotFound)
	}
	folder := strings.Trim(s.folder+"/avatars", "/")
	url, _, err := s.images.UploadImage(ctx, file, folder, fmt.Sprintf("user_%d", u.ID))
	if err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}
	previous := u.Profile.AvatarURL
	u.Profile.AvatarURL = url
	if err := s.users.UpdateProfile(u.Profile); err != nil {
		return nil, err
	}
	if previous != "" && previous != url {
		if err := s.images.DeleteByURL(ctx, previous); err != nil {
			s.log.Warn("removing old avatar failed", zap.Uint("user_id", u.ID), zap.Error(err))
		}
	}
	return u, nil
}

func (s *UserService) PublicProfile(ctx context.Context, id uint) (*PublicProfile, error) {
	u, err := s.users.GetByID(id)
	if err != nil {
		return nil, notFoundAs(err, "user")
	}
	if !u.IsActive {
		return nil, fmt.Errorf("%w: user not found", domain.ErrNotFound)
	}
	n, err := s.listings.CountActiveByOwner(u.ID)
	if err != nil {
		return nil, err
	}
	p := &PublicProfile{
		ID:            u.ID,
		FullName:      u.FullName,
		MemberSince:   u.CreatedAt.Format("2006-01-02"),
		ListingsCount: n,
	}
	if u.Profile != nil {
		p.City = u.Profile.City
		p.Bio = u.Profile.Bio
		p.AvatarURL = u.Profile.AvatarURL
	}
	return p, nil
}

func (s *UserService) Dashboard(ctx context.Context, caller domain.Caller) (*repository.UserDashboard, error) {
	return s.admin.GetUserDashboard(caller.UserID)
}

func (s *UserService) Stats(ctx context.Context, caller domain.Caller) (*repository.PlatformStats, error) {
	if !caller.IsAdmin() {
		return nil, forbidden("admin role required")
	}
	return s.admin.GetPlatformStats()
}

func (s *UserService) List(ctx context.Context, caller domain.Caller, search, role string, limit, offset int) ([]models.User, int64, error) {
	if !caller.IsAdmin() {
		return nil, 0, forbidden("admin role required")
	}
	if role != "" && !domain.IsRole(role) {
		return nil, 0, invalid("unknown role %q", role)
	}
	limit, offset = ClampPage(limit, offset)
	return s.users.List(strings.TrimSpace(search), role, limit, offset)
}

// UpdateAccess changes another account's role or active flag. Admins cannot
// demote or disable themselves.
func (s *UserService) UpdateAccess(ctx context.Context, caller domain.Caller, id uint, role *string, active *bool) (*models.User, error) {
	if !caller.IsAdmin() {
		return nil, forbidden("admin role required")
	}
	u, err := s.users.GetByID(id)
	if err != nil {
		return nil, notFoundAs(err, "user")
	}
	newRole, newActive := u.Role, u.IsActive
	if role != nil {
		if !domain.IsRole(*role) {
			return nil, invalid("unknown role %q", *role)
		}
		newRole = *role
	}
	if active != nil {
		newActive = *active
	}
	if u.ID == caller.UserID && (newRole != domain.RoleAdmin || !newActive) {
		return nil, fmt.Errorf("%w: admins cannot demote or disable themselves", domain.ErrInvalidOperation)
	}
	if err := s.users.UpdateAccess(u.ID, newRole, newActive); err != nil {
		return nil, notFoundAs(err, "user")
	}
	u.Role, u.IsActive = newRole, newActive
	s.log.Info("user access updated",
		zap.Uint("admin_id", caller.UserID),
		zap.Uint("user_id", u.ID),
		zap.String("role", newRole),
		zap.Bool("active", newActive))
	return u, nil
}
