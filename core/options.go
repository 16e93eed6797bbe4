package core

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	MinImages = 1
	MaxImages = 10
)

var (
	Sizes     = []string{"1024x1024", "1792x1024", "1024x1792"}
	Qualities = []string{"standard", "hd"}
)

// RunOptions is everything the command line decides for one invocation.
type RunOptions struct {
	Prompt             string
	Size               string
	Quality            string
	Count              int
	OutputDir          string
	UseReflection      bool
	ShowImprovedPrompt bool
	Model              string
	LogFile            string
}

// GenerationRequest is what the image endpoint receives.
type GenerationRequest struct {
	Prompt  string
	Size    string
	Quality string
	N       int
}

// Validate rejects options that must never reach the network.
func (o RunOptions) Validate() error {
	if o.Prompt == "" {
		return errors.New("prompt is required")
	}
	if !slices.Contains(Sizes, o.Size) {
		return fmt.Errorf("invalid size %q, choose from %s", o.Size, strings.Join(Sizes, ", "))
	}
	if !slices.Contains(Qualities, o.Quality) {
		return fmt.Errorf("invalid quality %q, choose from %s", o.Quality, strings.Join(Qualities, ", "))
	}
	if o.Count < MinImages || o.Count > MaxImages {
		return fmt.Errorf("n must be between %d and %d, got %d", MinImages, MaxImages, o.Count)
	}
	return nil
}
