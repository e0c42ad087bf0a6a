package models

// Config is the full policymetrics configuration. Keys are shared by the YAML
// file, POLICYMETRICS_* environment variables and command line flags.
type Config struct {
	Input         string         `yaml:"input" mapstructure:"input"`
	OutputDir     string         `yaml:"output_dir" mapstructure:"output_dir"`
	CoerceInvalid bool           `yaml:"coerce_invalid" mapstructure:"coerce_invalid"`
	Columns       Columns        `yaml:"columns" mapstructure:"columns"`
	Repairs       []ColumnRepair `yaml:"repairs" mapstructure:"repairs"`
	DateColumns   []string       `yaml:"date_columns" mapstructure:"date_columns"`
	Charts        Charts         `yaml:"charts" mapstructure:"charts"`
	Report        Report         `yaml:"report" mapstructure:"report"`
	Logging       Logging        `yaml:"logging" mapstructure:"logging"`
}

// Columns maps each logical policy field to its column name in the dataset
type Columns struct {
	PolicyNumber      string `yaml:"policy_number" mapstructure:"policy_number"`
	ProductName       string `yaml:"product_name" mapstructure:"product_name"`
	SaleDate          string `yaml:"sale_date" mapstructure:"sale_date"`
	CancelDate        string `yaml:"cancel_date" mapstructure:"cancel_date"`
	StartDate         string `yaml:"start_date" mapstructure:"start_date"`
	Premium           string `yaml:"premium" mapstructure:"premium"`
	IPTPercent        string `yaml:"ipt_percent" mapstructure:"ipt_percent"`
	CommissionPercent string `yaml:"commission_percent" mapstructure:"commission_percent"`
	SumInsured        string `yaml:"sum_insured" mapstructure:"sum_insured"`
	FirstName         string `yaml:"first_name" mapstructure:"first_name"`
	LastName          string `yaml:"last_name" mapstructure:"last_name"`
}

// ColumnRepair merges a misnamed column From into the correctly named To
type ColumnRepair struct {
	From string `yaml:"from" mapstructure:"from"`
	To   string `yaml:"to" mapstructure:"to"`
}

// Charts controls figure rendering
type Charts struct {
	Enabled  bool    `yaml:"enabled" mapstructure:"enabled"`
	Format   string  `yaml:"format" mapstructure:"format"`     // png, svg or pdf
	WidthIn  float64 `yaml:"width_in" mapstructure:"width_in"` // inches
	HeightIn float64 `yaml:"height_in" mapstructure:"height_in"`
	Prefix   string  `yaml:"prefix" mapstructure:"prefix"`
}

// Report controls metric exports written next to the charts
type Report struct {
	Formats  []string `yaml:"formats" mapstructure:"formats"` // json, yaml, csv, markdown, xlsx
	Basename string   `yaml:"basename" mapstructure:"basename"`
}

// Logging configures the structured logger
type Logging struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or text
}
