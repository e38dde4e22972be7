package config

import (
	"context"
	"fmt"
	"net/url"

	"github.com/databricks/databricks-sdk-go/config"
	sf "github.com/snowflakedb/gosnowflake"
	"gopkg.in/ini.v1"
)

// Supported warehouse drivers.
const (
	DriverDatabricks = "databricks"
	DriverSnowflake  = "snowflake"
	DriverDuckDB     = "duckdb"
)

// Profile is a named warehouse connection read from a .databrickscfg-style
// INI file. Sections without a driver key are Databricks profiles.
type Profile struct {
	Name   string
	Driver string

	Databricks *config.Config
	HTTPPath   string
	Catalog    string
	Schema     string

	Snowflake *sf.Config

	DuckDBPath string
}

// DSN returns the database/sql data source name for the profile.
func (p *Profile) DSN() (string, error) {
	switch p.Driver {
	case DriverDatabricks:
		dsn := fmt.Sprintf("token:%s@%s%s", p.Databricks.Token, p.Databricks.Host, p.HTTPPath)
		params := url.Values{}
		if p.Catalog != "" {
			params.Set("catalog", p.Catalog)
		}
		if p.Schema != "" {
			params.Set("schema", p.Schema)
		}
		if qp := params.Encode(); qp != "" {
			dsn = dsn + "?" + qp
		}
		return dsn, nil
	case DriverSnowflake:
		return sf.DSN(p.Snowflake)
	case DriverDuckDB:
		return p.DuckDBPath, nil
	default:
		return "", fmt.Errorf("profile %s: unsupported driver %q", p.Name, p.Driver)
	}
}

type Registry interface {
	GetProfiles(ctx context.Context) ([]string, error)
	GetProfile(ctx context.Context, name string) (*Profile, error)
}

type cfgRegistry struct {
	cfg *ini.File
}

func NewRegistry(path string) (Registry, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	return &cfgRegistry{cfg: cfg}, nil
}

func (cr *cfgRegistry) GetProfiles(_ context.Context) ([]string, error) {
	var profiles []string
	for _, section := range cr.cfg.Sections() {
		if len(section.Keys()) > 0 {
			profiles = append(profiles, section.Name())
		}
	}
	return profiles, nil
}

func (cr *cfgRegistry) GetProfile(_ context.Context, name string) (*Profile, error) {
	section, err := cr.cfg.GetSection(name)
	if err != nil {
		return nil, fmt.Errorf("profile %s not found: %w", name, err)
	}

	p := &Profile{
		Name:   name,
		Driver: section.Key("driver").MustString(DriverDatabricks),
	}

	switch p.Driver {
	case DriverDatabricks:
		p.Databricks = &config.Config{
			Host:  section.Key("host").String(),
			Token: section.Key("token").String(),
		}
		p.HTTPPath = section.Key("http_path").String()
		p.Catalog = section.Key("catalog").String()
		p.Schema = section.Key("schema").String()
		if p.Databricks.Host == "" || p.HTTPPath == "" {
			return nil, fmt.Errorf("profile %s: host and http_path are required", name)
		}
	case DriverSnowflake:
		p.Snowflake = &sf.Config{
			Account:   section.Key("account").String(),
			User:      section.Key("user").String(),
			Password:  section.Key("password").String(),
			Database:  section.Key("database").String(),
			Schema:    section.Key("schema").String(),
			Warehouse: section.Key("warehouse").String(),
			Role:      section.Key("role").String(),
		}
		if p.Snowflake.Account == "" || p.Snowflake.User == "" {
			return nil, fmt.Errorf("profile %s: account and user are required", name)
		}
	case DriverDuckDB:
		p.DuckDBPath = section.Key("path").String()
	default:
		return nil, fmt.Errorf("profile %s: unsupported driver %q", name, p.Driver)
	}
	return p, nil
}
