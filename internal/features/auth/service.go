package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	common_models "go-eventops/internal/common/models"
	"go-eventops/internal/features/audit"
	"go-eventops/internal/features/org"
	"go-eventops/internal/features/user"
	"go-eventops/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Register(ctx context.Context, username, password, email, orgName string) (*user.User, error)
	Login(ctx context.Context, username, password string) (string, error)
}

type AuthServiceImpl struct {
	UserRepo         user.UserRepository
	OrganizationRepo org.OrganizationRepository
	MembershipRepo   org.MembershipRepository
	AuditService     audit.AuditService
}

func NewAuthService(
	userRepo user.UserRepository,
	orgRepo org.OrganizationRepository,
	membershipRepo org.MembershipRepository,
	auditService audit.AuditService,
) AuthService {
	return &AuthServiceImpl{
		UserRepo:         userRepo,
		OrganizationRepo: orgRepo,
		MembershipRepo:   membershipRepo,
		AuditService:     auditService,
	}
}

func (s *AuthServiceImpl) Register(ctx context.Context, username, password, email, orgName string) (*user.User, error) {
	existing, err := s.UserRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.New("username already taken")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	if orgName == "" {
		orgName = fmt.Sprintf("%s's Organization", username)
	}

	newUserID := primitive.NewObjectID()
	newOrg := org.Organization{
		ID:        primitive.NewObjectID(),
		Name:      orgName,
		Slug:      utils.Slugify(orgName) + "-" + primitive.NewObjectID().Hex()[:4],
		OwnerID:   newUserID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.OrganizationRepo.Create(ctx, &newOrg); err != nil {
		return nil, err
	}

	newUser := user.User{
		ID:        newUserID,
		Username:  username,
		Password:  string(hashed),
		Email:     email,
		Status:    "active",
		Roles:     []primitive.ObjectID{},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.UserRepo.Create(ctx, &newUser); err != nil {
		return nil, err
	}

	member := org.OrganizationMember{
		ID:             primitive.NewObjectID(),
		OrganizationID: newOrg.ID,
		UserID:         newUserID,
		Active:         true,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := s.MembershipRepo.Create(ctx, &member); err != nil {
		return nil, err
	}

	ctx = context.WithValue(ctx, common_models.OrgIDKey, newOrg.ID.Hex())
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, "users", newUser.ID.Hex(), nil, map[string]interface{}{
		"username": username,
		"email":    email,
	})

	return &newUser, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.UserRepo.FindByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return "", errors.New("invalid credentials")
	}

	organizationID := primitive.NilObjectID
	if member, err := s.MembershipRepo.FindFirstActiveByUser(ctx, u.ID); err == nil && member != nil {
		organizationID = member.OrganizationID
	}

	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, r.Hex())
	}

	token, err := utils.GenerateToken(u.ID, organizationID, roles)
	if err != nil {
		return "", err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionLogin, "users", u.ID.Hex(), nil, nil)

	return token, nil
}
