package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// mountConfig is one entry of a --mounts YAML file: a guest path paired
// with the host directory backing it, the same shape as a repeated --dir
// host:guest flag.
type mountConfig struct {
	Path string `yaml:"path"`
	Dir  string `yaml:"dir"`
}

func loadMounts(path string) ([]mountConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var mounts []mountConfig
	if err := yaml.Unmarshal(b, &mounts); err != nil {
		return nil, err
	}
	return mounts, nil
}
