// Package config loads the pay policy file and the process settings.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/phillip-england/tipsheet/internal/payroll"
	"github.com/phillip-england/tipsheet/internal/tips"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// File is the on-disk policy. Sections left out of a file keep their
// built-in values; an explicitly empty list (for example "salaried: []")
// clears them.
type File struct {
	DinnerCutoff string            `yaml:"dinner_cutoff" toml:"dinner_cutoff" validate:"required,clock"`
	RoleAliases  map[string]string `yaml:"role_aliases" toml:"role_aliases" validate:"dive,keys,required,endkeys,required"`
	SplitRoles   []string          `yaml:"split_roles" toml:"split_roles" validate:"dive,required"`
	Salaried     []Salaried        `yaml:"salaried" toml:"salaried" validate:"dive"`
	Allocation   Allocation        `yaml:"allocation" toml:"allocation"`
}

type Salaried struct {
	Name        string  `yaml:"name" toml:"name" validate:"required"`
	Role        string  `yaml:"role" toml:"role" validate:"required"`
	LunchHours  float64 `yaml:"lunch_hours" toml:"lunch_hours" validate:"gte=0"`
	DinnerHours float64 `yaml:"dinner_hours" toml:"dinner_hours" validate:"gte=0"`
}

// Allocation holds the fraction of each pool paid to each role.
type Allocation struct {
	Lunch             map[string]float64 `yaml:"lunch" toml:"lunch" validate:"dive,keys,required,endkeys,gte=0,lte=1"`
	DinnerGeneral     map[string]float64 `yaml:"dinner_general" toml:"dinner_general" validate:"dive,keys,required,endkeys,gte=0,lte=1"`
	DinnerServers     map[string]float64 `yaml:"dinner_servers" toml:"dinner_servers" validate:"dive,keys,required,endkeys,gte=0,lte=1"`
	ServersToPoolRate *float64           `yaml:"servers_to_pool_rate" toml:"servers_to_pool_rate" validate:"omitempty,gte=0,lte=1"`
}

// Policy is the loaded, validated policy in the form the calculators use.
type Policy struct {
	Rules      payroll.Rules
	Allocation tips.AllocationTable
}

func DefaultPolicy() Policy {
	return Policy{Rules: payroll.DefaultRules(), Allocation: tips.DefaultAllocation()}
}

// Default returns the built-in policy as a File.
func Default() File {
	return FileFromPolicy(DefaultPolicy())
}

// FileFromPolicy converts a policy back to its file form.
func FileFromPolicy(p Policy) File {
	f := File{
		DinnerCutoff: payroll.FormatClock(p.Rules.DinnerCutoff),
		RoleAliases:  map[string]string{},
		SplitRoles:   append([]string(nil), p.Rules.SplitRoles...),
		Salaried:     []Salaried{},
	}
	for k, v := range p.Rules.RoleAliases {
		f.RoleAliases[k] = v
	}
	for _, emp := range p.Rules.Salaried {
		f.Salaried = append(f.Salaried, Salaried{
			Name:        emp.Name,
			Role:        emp.Role,
			LunchHours:  emp.LunchHours,
			DinnerHours: emp.DinnerHours,
		})
	}
	rate := p.Allocation.ServersToPoolRate.InexactFloat64()
	f.Allocation = Allocation{
		Lunch:             floatFractions(p.Allocation.Lunch),
		DinnerGeneral:     floatFractions(p.Allocation.DinnerGeneral),
		DinnerServers:     floatFractions(p.Allocation.DinnerServers),
		ServersToPoolRate: &rate,
	}
	return f
}

// Load reads a YAML or TOML policy file, chosen by extension. A missing
// file yields the built-in policy.
func Load(path string) (Policy, error) {
	if path == "" {
		return Policy{}, errors.New("policy path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultPolicy(), nil
		}
		return Policy{}, fmt.Errorf("read policy: %w", err)
	}

	var f File
	if isTOML(path) {
		md, err := toml.Decode(string(data), &f)
		if err != nil {
			return Policy{}, fmt.Errorf("decode policy: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Policy{}, fmt.Errorf("decode policy: unknown key %q", undecoded[0].String())
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty document decodes as io.EOF and means all defaults.
		if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return Policy{}, fmt.Errorf("decode policy: %w", err)
		}
	}
	return f.Policy()
}

// Policy fills unset sections from the defaults, validates the file and
// converts it.
func (f File) Policy() (Policy, error) {
	f.fillDefaults()
	if err := Validate(f); err != nil {
		return Policy{}, err
	}

	cutoff, err := payroll.ParseClock(f.DinnerCutoff)
	if err != nil {
		return Policy{}, fmt.Errorf("dinner_cutoff: %w", err)
	}
	rules := payroll.Rules{
		DinnerCutoff: cutoff,
		RoleAliases:  map[string]string{},
		SplitRoles:   append([]string(nil), f.SplitRoles...),
	}
	for k, v := range f.RoleAliases {
		rules.RoleAliases[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	for _, s := range f.Salaried {
		rules.Salaried = append(rules.Salaried, payroll.SalariedEmployee{
			Name:        strings.TrimSpace(s.Name),
			Role:        strings.TrimSpace(s.Role),
			LunchHours:  s.LunchHours,
			DinnerHours: s.DinnerHours,
		})
	}

	allocation := tips.AllocationTable{
		Lunch:             decimalFractions(f.Allocation.Lunch),
		DinnerGeneral:     decimalFractions(f.Allocation.DinnerGeneral),
		DinnerServers:     decimalFractions(f.Allocation.DinnerServers),
		ServersToPoolRate: decimal.NewFromFloat(*f.Allocation.ServersToPoolRate),
	}
	return Policy{Rules: rules, Allocation: allocation}, nil
}

func (f *File) fillDefaults() {
	def := Default()
	if strings.TrimSpace(f.DinnerCutoff) == "" {
		f.DinnerCutoff = def.DinnerCutoff
	}
	if f.RoleAliases == nil {
		f.RoleAliases = def.RoleAliases
	}
	if f.SplitRoles == nil {
		f.SplitRoles = def.SplitRoles
	}
	if f.Salaried == nil {
		f.Salaried = def.Salaried
	}
	if f.Allocation.Lunch == nil {
		f.Allocation.Lunch = def.Allocation.Lunch
	}
	if f.Allocation.DinnerGeneral == nil {
		f.Allocation.DinnerGeneral = def.Allocation.DinnerGeneral
	}
	if f.Allocation.DinnerServers == nil {
		f.Allocation.DinnerServers = def.Allocation.DinnerServers
	}
	if f.Allocation.ServersToPoolRate == nil {
		f.Allocation.ServersToPoolRate = def.Allocation.ServersToPoolRate
	}
}

// Write encodes f to path as TOML or YAML depending on the extension. An
// existing file is only replaced when overwrite is set.
func Write(path string, f File, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	data, err := Encode(f, isTOML(path))
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// Encode renders f as TOML or YAML.
func Encode(f File, asTOML bool) ([]byte, error) {
	var buf bytes.Buffer
	if asTOML {
		if err := toml.NewEncoder(&buf).Encode(f); err != nil {
			return nil, fmt.Errorf("encode policy: %w", err)
		}
		return buf.Bytes(), nil
	}
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("encode policy: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode policy: %w", err)
	}
	return buf.Bytes(), nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := payroll.ParseClock(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks a policy file and reports every failing field.
func Validate(f File) error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, formatFieldError(fe))
	}
	sort.Strings(msgs)
	return fmt.Errorf("invalid policy: %s", strings.Join(msgs, "; "))
}

func formatFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "File.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "clock":
		return fmt.Sprintf("%s must be a time of day like 17:00", field)
	}
	return fmt.Sprintf("%s failed validation for '%s'", field, fe.Tag())
}

func floatFractions(in map[string]decimal.Decimal) map[string]float64 {
	out := make(map[string]float64, len(in))
	for role, f := range in {
		out[role] = f.InexactFloat64()
	}
	return out
}

func decimalFractions(in map[string]float64) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(in))
	for role, f := range in {
		out[strings.TrimSpace(role)] = decimal.NewFromFloat(f)
	}
	return out
}
