// Copyright 2023 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package cluster

import (
	_ "embed"
	"strings"

	"go.chromium.org/luci/common/errors"
	"gopkg.in/ini.v1"
)

const (
	keyURL      = "url"
	keySuffix   = "suffix"
	keyHostname = "hostname"
)

//go:embed cluster.ini
var defaultConfig []byte

// Registry is the read-only set of clusters declared by a configuration.
type Registry struct {
	names    []string
	clusters map[string]Cluster
}

// Default loads the cluster configuration bundled with tunneller.
func Default() (*Registry, error) {
	return load("bundled cluster.ini", defaultConfig)
}

// LoadFile loads the cluster configuration at path.
func LoadFile(path string) (*Registry, error) {
	return load(path, path)
}

// Load parses a cluster configuration from data.
func Load(data []byte) (*Registry, error) {
	return load("cluster configuration", data)
}

func load(origin string, source interface{}) (*Registry, error) {
	file, err := ini.LoadSources(ini.LoadOptions{InsensitiveKeys: true}, source)
	if err != nil {
		// ini parse errors end with a newline.
		return nil, errors.Reason("cannot load %s: %s", origin, strings.TrimSpace(err.Error())).Tag(ConfigError).Err()
	}

	r := &Registry{clusters: map[string]Cluster{}}
	defaults := file.Section(ini.DefaultSection)
	for _, section := range file.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		c := Cluster{Name: section.Name()}
		for _, field := range []struct {
			key        string
			dst        *string
			allowEmpty bool
		}{
			{key: keyURL, dst: &c.URL},
			{key: keySuffix, dst: &c.Suffix, allowEmpty: true},
			{key: keyHostname, dst: &c.Hostname},
		} {
			value, ok := lookupKey(section, defaults, field.key)
			if !ok || (value == "" && !field.allowEmpty) {
				return nil, errors.Reason("%s: cluster %q is missing required key %q", origin, c.Name, field.key).Tag(ConfigError).Err()
			}
			*field.dst = value
		}
		r.names = append(r.names, c.Name)
		r.clusters[c.Name] = c
	}
	if len(r.names) == 0 {
		return nil, errors.Reason("%s declares no clusters", origin).Tag(ConfigError).Err()
	}
	return r, nil
}

// lookupKey returns the value of key in section, falling back to the DEFAULT
// section like the INI files the tool has always been configured with. The
// second result is false when neither section declares key.
func lookupKey(section, defaults *ini.Section, key string) (string, bool) {
	if section.HasKey(key) {
		return strings.TrimSpace(section.Key(key).String()), true
	}
	if defaults.HasKey(key) {
		return strings.TrimSpace(defaults.Key(key).String()), true
	}
	return "", false
}

// Names returns the declared cluster names in declaration order. The first
// name is the default cluster.
func (r *Registry) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Default returns the first declared cluster.
func (r *Registry) Default() Cluster {
	return r.clusters[r.names[0]]
}

// Get returns the cluster declared as name.
func (r *Registry) Get(name string) (Cluster, error) {
	c, ok := r.clusters[name]
	if !ok {
		return Cluster{}, errors.Reason("cluster %q is not configured", name).Tag(ConfigError).Err()
	}
	return c, nil
}

// Validate checks that name, as given on the command line, is a declared
// cluster.
func (r *Registry) Validate(name string) error {
	if _, ok := r.clusters[name]; ok {
		return nil
	}
	return errors.Reason("invalid cluster %q (choose from %s), try --help", name, strings.Join(r.names, ", ")).Tag(UnknownClusterError).Err()
}
