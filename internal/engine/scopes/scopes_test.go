package scopes

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Scope
		wantErr bool
	}{
		{name: "Valid", input: "workspaces:read", want: Scope{Resource: "workspaces", Action: "read"}},
		{name: "Free Form", input: "billing:refund", want: Scope{Resource: "billing", Action: "refund"}},
		{name: "Missing Action", input: "workspaces", wantErr: true},
		{name: "Empty Resource", input: ":read", wantErr: true},
		{name: "Empty Action", input: "workspaces:", wantErr: true},
		{name: "Extra Colon Kept In Action", input: "a:b:c", want: Scope{Resource: "a", Action: "b:c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestGranted_Hierarchy(t *testing.T) {
	tests := []struct {
		name  string
		scope string
		want  []string
	}{
		{name: "Workspaces Admin", scope: "workspaces:admin", want: []string{"workspaces:admin", "workspaces:delete", "workspaces:write", "workspaces:read"}},
		{name: "Workspaces Delete", scope: "workspaces:delete", want: []string{"workspaces:delete", "workspaces:write", "workspaces:read"}},
		{name: "Workspaces Write", scope: "workspaces:write", want: []string{"workspaces:write", "workspaces:read"}},
		{name: "Workspaces Read", scope: "workspaces:read", want: []string{"workspaces:read"}},
		{name: "Users Write", scope: "users:write", want: []string{"users:write", "users:read"}},
		{name: "FCS Analyze", scope: "fcs:analyze", want: []string{"fcs:analyze", "fcs:write", "fcs:read"}},
		{name: "Unknown Action", scope: "workspaces:deploy", want: []string{"workspaces:deploy"}},
		{name: "Unknown Resource", scope: "billing:refund", want: []string{"billing:refund"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Granted(MustParse(tt.scope))
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d scopes, got %d: %v", len(tt.want), len(got), got)
			}
			for i, w := range tt.want {
				if got[i].String() != w {
					t.Errorf("Expected %s at position %d, got %s", w, i, got[i])
				}
			}
		})
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name     string
		user     []string
		required string
		want     bool
		granting string
	}{
		{name: "Exact Match", user: []string{"users:read"}, required: "users:read", want: true, granting: "users:read"},
		{name: "Higher Grants Lower", user: []string{"workspaces:admin"}, required: "workspaces:read", want: true, granting: "workspaces:admin"},
		{name: "Lower Never Grants Higher", user: []string{"workspaces:read"}, required: "workspaces:admin", want: false},
		{name: "No Cross Resource", user: []string{"workspaces:admin"}, required: "users:read", want: false},
		{name: "Analyze Grants Read", user: []string{"fcs:analyze"}, required: "fcs:read", want: true, granting: "fcs:analyze"},
		{name: "Write Does Not Grant Analyze", user: []string{"fcs:write"}, required: "fcs:analyze", want: false},
		{name: "First Matching Scope Wins", user: []string{"workspaces:write", "workspaces:admin"}, required: "workspaces:read", want: true, granting: "workspaces:write"},
		{name: "Unknown Scope Grants Itself", user: []string{"billing:refund"}, required: "billing:refund", want: true, granting: "billing:refund"},
		{name: "Unknown Scope Grants Nothing Else", user: []string{"billing:refund"}, required: "billing:read", want: false},
		{name: "Empty User Scopes", user: nil, required: "users:read", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userScopes := make([]Scope, 0, len(tt.user))
			for _, s := range tt.user {
				userScopes = append(userScopes, MustParse(s))
			}

			ok, granting := Check(userScopes, MustParse(tt.required))
			if ok != tt.want {
				t.Fatalf("Expected %t, got %t", tt.want, ok)
			}
			if !ok {
				if granting != nil {
					t.Errorf("Expected nil granting scope on denial, got %v", granting)
				}
				return
			}
			if granting == nil || granting.String() != tt.granting {
				t.Errorf("Expected granting scope %s, got %v", tt.granting, granting)
			}
		})
	}
}

func TestCheck_OrderIndependentGrant(t *testing.T) {
	forward := []Scope{MustParse("users:read"), MustParse("fcs:write"), MustParse("workspaces:admin")}
	reversed := []Scope{MustParse("workspaces:admin"), MustParse("fcs:write"), MustParse("users:read")}

	for _, required := range []string{"workspaces:read", "fcs:read", "users:write", "fcs:analyze"} {
		a, _ := Check(forward, MustParse(required))
		b, _ := Check(reversed, MustParse(required))
		if a != b {
			t.Errorf("Grant decision for %s depends on scope ordering: %t vs %t", required, a, b)
		}
	}
}

func TestCheck_AllHierarchyPairs(t *testing.T) {
	// Every action must satisfy itself and everything below it on the
	// same resource, and nothing above it.
	for resource, levels := range hierarchy {
		for i, holder := range levels {
			for j, target := range levels {
				user := []Scope{{Resource: resource, Action: holder}}
				required := Scope{Resource: resource, Action: target}

				ok, _ := Check(user, required)
				if want := j >= i; ok != want {
					t.Errorf("%s:%s satisfying %s:%s = %t, expected %t",
						resource, holder, resource, target, ok, want)
				}
			}
		}
	}
}
