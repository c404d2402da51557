package permission

import (
	"testing"

	"github.com/davidahmann/govgate/internal/policy"
)

func tables(t *testing.T) policy.PermissionTables {
	t.Helper()
	loaded, err := policy.Default()
	if err != nil {
		t.Fatalf("tables: %v", err)
	}
	return loaded.Tables.Permissions
}

func TestValidateReadOnlyOperation(t *testing.T) {
	got := Validate(tables(t), "logistics", "track", []string{"logistics:read"})
	if !got.Valid {
		t.Fatalf("expected valid, got %+v", got)
	}
	if len(got.Required) != 1 || got.Required[0] != "logistics:read" {
		t.Fatalf("unexpected required: %v", got.Required)
	}
}

func TestValidateAdminOperationRequiresAllScopes(t *testing.T) {
	got := Validate(tables(t), "finance", "approve", []string{"finance:read", "finance:write", "finance:admin"})
	if !got.Valid {
		t.Fatalf("expected valid, got %+v", got)
	}
	if len(got.Required) != 3 {
		t.Fatalf("expected 3 required permissions, got %v", got.Required)
	}
}

func TestValidateMissingWritePermission(t *testing.T) {
	got := Validate(tables(t), "procurement", "create", []string{"procurement:read"})
	if got.Valid || got.PermissionsValid {
		t.Fatalf("expected invalid, got %+v", got)
	}
	if !got.ModuleValid || !got.OperationValid {
		t.Fatalf("expected module and operation valid, got %+v", got)
	}
	if len(got.Missing) != 1 || got.Missing[0] != "procurement:write" {
		t.Fatalf("expected procurement:write missing, got %v", got.Missing)
	}
}

func TestValidateEveryWriteOperationListsMissingWrite(t *testing.T) {
	perms := tables(t)
	for module, ops := range perms.Modules {
		for _, op := range ops {
			if !contains(perms.WriteOperations, op) {
				continue
			}
			got := Validate(perms, module, op, []string{module + ":read", module + ":admin"})
			if got.Valid {
				t.Fatalf("%s/%s: expected invalid without write permission", module, op)
			}
			if !contains(got.Missing, module+":write") {
				t.Fatalf("%s/%s: expected %s:write missing, got %v", module, op, module, got.Missing)
			}
		}
	}
}

func TestValidateUnknownModuleAndOperation(t *testing.T) {
	got := Validate(tables(t), "marketing", "create", nil)
	if got.Valid || got.ModuleValid {
		t.Fatalf("expected unknown module to be invalid, got %+v", got)
	}

	got = Validate(tables(t), "hr", "dispatch", []string{"hr:read", "hr:write"})
	if got.Valid || !got.ModuleValid || got.OperationValid {
		t.Fatalf("expected unknown operation to be invalid, got %+v", got)
	}
}

func TestValidateIsCaseInsensitive(t *testing.T) {
	got := Validate(tables(t), " HR ", "Hire", []string{"HR:READ", "hr:write"})
	if !got.Valid {
		t.Fatalf("expected valid, got %+v", got)
	}
}
