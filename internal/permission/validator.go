// Package permission validates caller-declared permissions against the
// per-module operation tables.
package permission

import (
	"strings"

	"github.com/davidahmann/govgate/internal/policy"
	"github.com/davidahmann/govgate/pkg/types"
)

const (
	ScopeRead  = "read"
	ScopeWrite = "write"
	ScopeAdmin = "admin"
)

// Validate checks module and operation against the tables and reports which
// of the required permissions the caller did not declare.
func Validate(tables policy.PermissionTables, module, operation string, declared []string) types.PermissionResult {
	module = strings.ToLower(strings.TrimSpace(module))
	operation = strings.ToLower(strings.TrimSpace(operation))

	result := types.PermissionResult{
		Required: []string{},
		Missing:  []string{},
	}

	ops, ok := tables.Modules[module]
	if !ok {
		return result
	}
	result.ModuleValid = true
	result.OperationValid = contains(ops, operation)
	if !result.OperationValid {
		return result
	}

	result.Required = Required(tables, module, operation)
	have := make(map[string]struct{}, len(declared))
	for _, p := range declared {
		have[strings.ToLower(strings.TrimSpace(p))] = struct{}{}
	}
	for _, req := range result.Required {
		if _, ok := have[req]; !ok {
			result.Missing = append(result.Missing, req)
		}
	}
	result.PermissionsValid = len(result.Missing) == 0
	result.Valid = result.ModuleValid && result.OperationValid && result.PermissionsValid
	return result
}

// Required returns module:read plus module:write for write operations and
// module:admin for admin operations.
func Required(tables policy.PermissionTables, module, operation string) []string {
	required := []string{module + ":" + ScopeRead}
	if contains(tables.WriteOperations, operation) {
		required = append(required, module+":"+ScopeWrite)
	}
	if contains(tables.AdminOperations, operation) {
		required = append(required, module+":"+ScopeAdmin)
	}
	return required
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
