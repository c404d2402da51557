package policy

const (
	CategoryFinancial    = "financial"
	CategoryOperational  = "operational"
	CategoryReputational = "reputational"
	CategoryCompliance   = "compliance"
	CategoryEthical      = "ethical"
)

// BoundarySourceMean selects the mean of all category scores as a boundary trigger.
const BoundarySourceMean = "mean"

// Tables is the immutable configuration every engine component reads.
// Nothing in the engine writes to a Tables value after it is loaded.
type Tables struct {
	TablesID      string           `yaml:"tables_id"`
	TablesVersion string           `yaml:"tables_version"`
	Levels        Levels           `yaml:"levels"`
	Categories    []Category       `yaml:"categories"`
	Keywords      Keywords         `yaml:"keywords"`
	Boundaries    []BoundaryRule   `yaml:"boundaries"`
	Permissions   PermissionTables `yaml:"permissions"`
}

// Levels holds the inclusive lower bounds of the discrete risk levels.
// Approval is the overall score from which governance approval is required.
type Levels struct {
	Critical int `yaml:"critical"`
	High     int `yaml:"high"`
	Medium   int `yaml:"medium"`
	Approval int `yaml:"approval"`
}

type Category struct {
	Name           string     `yaml:"name"`
	Weight         float64    `yaml:"weight"`
	Recommendation string     `yaml:"recommendation"`
	Mitigation     Mitigation `yaml:"mitigation"`

	// basis points of Weight, fixed at load so aggregation stays in integers.
	weightBP int
}

// WeightBasisPoints returns the category weight in hundredths of a percent.
func (c Category) WeightBasisPoints() int {
	return c.weightBP
}

type Mitigation struct {
	Strategy string `yaml:"strategy"`
	Owner    string `yaml:"owner"`
}

type Keywords struct {
	ConflictLocations       []string `yaml:"conflict_locations"`
	SensitiveCategories     []string `yaml:"sensitive_categories"`
	SanctionedJurisdictions []string `yaml:"sanctioned_jurisdictions"`
	RegulatedCategories     []string `yaml:"regulated_categories"`
}

type BoundaryRule struct {
	ID        string `yaml:"id"`
	Rule      string `yaml:"rule"`
	Status    string `yaml:"status"`
	Source    string `yaml:"source"`
	Threshold int    `yaml:"threshold"`
	Action    string `yaml:"action"`
}

type PermissionTables struct {
	Modules         map[string][]string `yaml:"modules"`
	WriteOperations []string            `yaml:"write_operations"`
	AdminOperations []string            `yaml:"admin_operations"`
}

// Category returns the named category.
func (t Tables) Category(name string) (Category, bool) {
	for _, c := range t.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}
