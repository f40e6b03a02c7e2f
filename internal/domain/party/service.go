package party

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/carelink/carelink/internal/platform/apperror"
)

const bcryptCost = 10

// maxIDAttempts bounds the regenerate-on-collision loop so a pathological
// store cannot spin the service forever.
const maxIDAttempts = 32

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RegisterInput carries the fields required to open an account.
type RegisterInput struct {
	Kind        Kind   `json:"kind"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	NationalID  string `json:"national_id"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender"`
}

func (in *RegisterInput) validate() error {
	if in.Kind == "" {
		in.Kind = KindPatient
	}
	if _, ok := prefixByKind[in.Kind]; !ok {
		return apperror.Validationf("unknown party kind %q", in.Kind)
	}
	switch {
	case in.Email == "", in.NationalID == "", in.Password == "",
		in.PhoneNumber == "", in.Address == "":
		return apperror.Validationf("required fields are missing")
	}
	if in.Kind == KindPatient {
		if in.FirstName == "" || in.LastName == "" || in.DateOfBirth == "" || in.Gender == "" {
			return apperror.Validationf("required fields are missing")
		}
	} else if in.DisplayName == "" && in.FirstName == "" {
		return apperror.Validationf("required fields are missing")
	}
	return nil
}

// Register opens an account, generating a kind-prefixed identifier from the
// national identifier and regenerating on collision until it is unique.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Party, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	if taken, err := s.repo.ExistsByNationalID(ctx, in.NationalID); err != nil {
		return nil, err
	} else if taken {
		return nil, apperror.Conflictf("account with this national identifier already exists")
	}
	if taken, err := s.repo.ExistsByEmail(ctx, in.Email); err != nil {
		return nil, err
	} else if taken {
		return nil, apperror.Conflictf("account with this email already exists")
	}

	id, err := s.uniqueID(ctx, in.Kind, in.NationalID)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, apperror.Internalf(err, "hash password")
	}

	p := &Party{
		ID:           id,
		Kind:         in.Kind,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		DisplayName:  in.DisplayName,
		Email:        in.Email,
		NationalID:   in.NationalID,
		PasswordHash: string(hash),
		PhoneNumber:  in.PhoneNumber,
		Address:      in.Address,
		DateOfBirth:  in.DateOfBirth,
		Gender:       in.Gender,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) uniqueID(ctx context.Context, kind Kind, nationalID string) (ID, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := NewID(kind, nationalID)
		if err != nil {
			return ID{}, apperror.Validationf("%v", err)
		}
		taken, err := s.repo.Exists(ctx, id)
		if err != nil {
			return ID{}, err
		}
		if !taken {
			return id, nil
		}
	}
	return ID{}, apperror.Internalf(nil, "could not allocate a unique party id")
}

// Authenticate verifies credentials and returns the matching party.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Party, error) {
	if email == "" || password == "" {
		return nil, apperror.Validationf("required fields are missing")
	}
	p, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if apperror.KindOf(err) == apperror.NotFound {
			return nil, apperror.Authorizationf("invalid credentials")
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) != nil {
		return nil, apperror.Authorizationf("invalid credentials")
	}
	return p, nil
}

// Profile returns the caller's own account.
func (s *Service) Profile(ctx context.Context, id ID) (*Party, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateProfile applies an allow-listed partial update.
func (s *Service) UpdateProfile(ctx context.Context, id ID, u *ProfileUpdate) error {
	if u.Empty() {
		return apperror.Validationf("no updatable fields provided")
	}
	return s.repo.UpdateProfile(ctx, id, u)
}
