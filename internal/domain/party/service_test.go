package party

import (
	"context"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/carelink/carelink/internal/platform/apperror"
)

type mockRepo struct {
	byID    map[ID]*Party
	created int
	// taken forces Exists to report collisions for specific ids.
	taken map[string]bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{byID: make(map[ID]*Party), taken: make(map[string]bool)}
}

func (m *mockRepo) Create(_ context.Context, p *Party) error {
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.byID[p.ID] = p
	m.created++
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id ID) (*Party, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, apperror.NotFoundf("party not found")
	}
	return p, nil
}

func (m *mockRepo) GetByEmail(_ context.Context, email string) (*Party, error) {
	for _, p := range m.byID {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, apperror.NotFoundf("party not found")
}

func (m *mockRepo) ExistsByNationalID(_ context.Context, nic string) (bool, error) {
	for _, p := range m.byID {
		if p.NationalID == nic {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, p := range m.byID {
		if p.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) Exists(_ context.Context, id ID) (bool, error) {
	if m.taken[id.String()] {
		return true, nil
	}
	_, ok := m.byID[id]
	return ok, nil
}

func (m *mockRepo) UpdateProfile(_ context.Context, id ID, u *ProfileUpdate) error {
	p, ok := m.byID[id]
	if !ok {
		return apperror.NotFoundf("party not found")
	}
	if u.FirstName != nil {
		p.FirstName = *u.FirstName
	}
	if u.PhoneNumber != nil {
		p.PhoneNumber = *u.PhoneNumber
	}
	return nil
}

func patientInput() RegisterInput {
	return RegisterInput{
		FirstName:   "Amara",
		LastName:    "Silva",
		Email:       "amara@example.com",
		NationalID:  "987654321V",
		Password:    "hunter22",
		PhoneNumber: "+94771234567",
		Address:     "12 Lake Rd",
		DateOfBirth: "1998-07-01",
		Gender:      "female",
	}
}

func TestRegisterPatient(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	p, err := svc.Register(context.Background(), patientInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if p.Kind != KindPatient {
		t.Errorf("kind defaulted to %s, want patient", p.Kind)
	}
	raw := p.ID.String()
	if !strings.HasPrefix(raw, "PA") || !strings.HasSuffix(raw, "321V") {
		t.Errorf("generated id = %q, want PA...321V", raw)
	}
	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte("hunter22")) != nil {
		t.Error("stored hash does not verify the password")
	}
	if p.PasswordHash == "hunter22" {
		t.Error("password stored in the clear")
	}
}

func TestRegisterOrganizationKinds(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	in := RegisterInput{
		Kind:        KindDispensary,
		DisplayName: "Lakeside Pharmacy",
		Email:       "rx@example.com",
		NationalID:  "ORG99881",
		Password:    "s3cret",
		PhoneNumber: "+94770000000",
		Address:     "1 Main St",
	}
	p, err := svc.Register(context.Background(), in)
	if err != nil {
		t.Fatalf("Register dispensary: %v", err)
	}
	if !strings.HasPrefix(p.ID.String(), "PH") {
		t.Errorf("dispensary id = %q, want PH prefix", p.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(newMockRepo())

	cases := []func(*RegisterInput){
		func(in *RegisterInput) { in.Email = "" },
		func(in *RegisterInput) { in.Password = "" },
		func(in *RegisterInput) { in.NationalID = "" },
		func(in *RegisterInput) { in.FirstName = "" },
		func(in *RegisterInput) { in.Gender = "" },
		func(in *RegisterInput) { in.Kind = "robot" },
	}
	for i, mutate := range cases {
		in := patientInput()
		mutate(&in)
		if _, err := svc.Register(context.Background(), in); apperror.KindOf(err) != apperror.Validation {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestRegisterDuplicateNationalID(t *testing.T) {
	svc := NewService(newMockRepo())
	if _, err := svc.Register(context.Background(), patientInput()); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	in := patientInput()
	in.Email = "other@example.com"
	if _, err := svc.Register(context.Background(), in); apperror.KindOf(err) != apperror.Conflict {
		t.Errorf("expected conflict on duplicate national id, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewService(newMockRepo())
	if _, err := svc.Register(context.Background(), patientInput()); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	in := patientInput()
	in.NationalID = "123456789V"
	if _, err := svc.Register(context.Background(), in); apperror.KindOf(err) != apperror.Conflict {
		t.Errorf("expected conflict on duplicate email, got %v", err)
	}
}

func TestRegisterRetriesOnIDCollision(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	// Claim part of the digit space; the generator must land on a free one.
	for d := '1'; d <= '4'; d++ {
		repo.taken["PA"+string(d)+"321V"] = true
	}

	p, err := svc.Register(context.Background(), patientInput())
	if err != nil {
		t.Fatalf("Register with collisions: %v", err)
	}
	if repo.taken[p.ID.String()] {
		t.Errorf("allocated id %q collides with a taken id", p.ID)
	}
}

func TestRegisterFailsWhenIDSpaceExhausted(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	for d := '1'; d <= '9'; d++ {
		repo.taken["PA"+string(d)+"321V"] = true
	}

	if _, err := svc.Register(context.Background(), patientInput()); apperror.KindOf(err) != apperror.Internal {
		t.Errorf("expected internal error when every candidate id is taken, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc := NewService(newMockRepo())
	registered, err := svc.Register(context.Background(), patientInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	p, err := svc.Authenticate(context.Background(), "amara@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if p.ID != registered.ID {
		t.Errorf("authenticated id = %s, want %s", p.ID, registered.ID)
	}

	if _, err := svc.Authenticate(context.Background(), "amara@example.com", "wrong"); apperror.KindOf(err) != apperror.Authorization {
		t.Errorf("wrong password: expected authorization error, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "nobody@example.com", "hunter22"); apperror.KindOf(err) != apperror.Authorization {
		t.Errorf("unknown email: expected authorization error, got %v", err)
	}
}

func TestUpdateProfileRequiresFields(t *testing.T) {
	svc := NewService(newMockRepo())
	p, err := svc.Register(context.Background(), patientInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.UpdateProfile(context.Background(), p.ID, &ProfileUpdate{}); apperror.KindOf(err) != apperror.Validation {
		t.Errorf("empty update: expected validation error, got %v", err)
	}

	phone := "+94779999999"
	if err := svc.UpdateProfile(context.Background(), p.ID, &ProfileUpdate{PhoneNumber: &phone}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	got, err := svc.Profile(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if got.PhoneNumber != phone {
		t.Errorf("phone = %q, want %q", got.PhoneNumber, phone)
	}
}
