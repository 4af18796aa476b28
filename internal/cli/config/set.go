package config

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

var setters = map[string]func(*CLIConfig, string) error{
	"server":  func(c *CLIConfig, v string) error { c.Server = v; return nil },
	"api_key": func(c *CLIConfig, v string) error { c.APIKey = v; return nil },
	"ca_cert": func(c *CLIConfig, v string) error { c.CACert = v; return nil },
	"insecure": func(c *CLIConfig, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		c.Insecure = b
		return nil
	},
	"output": func(c *CLIConfig, v string) error {
		switch v {
		case "table", "json", "yaml":
			c.Output = v
			return nil
		}
		return fmt.Errorf("want table, json or yaml")
	},
	"timeout": func(c *CLIConfig, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		if d <= 0 {
			return fmt.Errorf("must be positive")
		}
		c.Timeout = d
		return nil
	},
}

// Set assigns one profile key from its string form.
func (c *CLIConfig) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown key %q (known: %v)", key, Keys())
	}
	if err := set(c, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// Keys lists the settable profile keys.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
