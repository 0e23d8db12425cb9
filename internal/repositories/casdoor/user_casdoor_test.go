package casdoor

import (
	"errors"
	"testing"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"

	"github.com/SAP-F-2025/exam-service/internal/models"
)

type stubParser struct {
	claims *casdoorsdk.Claims
	err    error
}

func (s stubParser) ParseJwtToken(string) (*casdoorsdk.Claims, error) {
	return s.claims, s.err
}

func claimsFor(id, name, display, typ string) *casdoorsdk.Claims {
	c := &casdoorsdk.Claims{}
	c.User.Id = id
	c.User.Name = name
	c.User.DisplayName = display
	c.User.Type = typ
	return c
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name     string
		parser   stubParser
		wantErr  bool
		wantRole models.UserRole
		wantName string
	}{
		{
			name:     "teacher",
			parser:   stubParser{claims: claimsFor("u-1", "t001", "Ms Li", "Teacher")},
			wantRole: models.RoleTeacher,
			wantName: "Ms Li",
		},
		{
			name:     "unknown type defaults to student",
			parser:   stubParser{claims: claimsFor("u-2", "s001", "", "normal-user")},
			wantRole: models.RoleStudent,
			wantName: "s001",
		},
		{
			name:     "admin",
			parser:   stubParser{claims: claimsFor("u-3", "root", "Root", "administrator")},
			wantRole: models.RoleAdmin,
			wantName: "Root",
		},
		{
			name:    "missing id",
			parser:  stubParser{claims: claimsFor("", "x", "x", "student")},
			wantErr: true,
		},
		{
			name:    "bad signature",
			parser:  stubParser{err: errors.New("crypto/rsa: verification error")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &UserCasdoor{client: tt.parser}
			id, err := v.Verify("token")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got identity %+v", id)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id.Role != tt.wantRole {
				t.Errorf("role = %s, want %s", id.Role, tt.wantRole)
			}
			if id.FullName != tt.wantName {
				t.Errorf("full name = %q, want %q", id.FullName, tt.wantName)
			}
		})
	}
}
