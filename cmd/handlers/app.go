package handlers

import (
	"autoblog/internal/config"
	"autoblog/internal/generator"
	"autoblog/internal/store"
	"autoblog/internal/templates"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// app bundles what most commands need.
type app struct {
	cfg      *config.Config
	pipeline *generator.Pipeline
	library  *templates.Library
	store    store.TemplateStore
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
}

// loadPipeline builds the generation pipeline from config.
func loadPipeline() (*config.Config, *generator.Pipeline, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	pipeline, err := generator.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pipeline, nil
}

// loadApp builds the pipeline and opens the template library from config.
func loadApp(ctx context.Context) (*app, error) {
	cfg, pipeline, err := loadPipeline()
	if err != nil {
		return nil, err
	}

	s, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open template store: %w", err)
	}

	library := templates.NewLibrary(s)
	if err := library.Load(ctx); err != nil {
		s.Close()
		return nil, err
	}

	return &app{cfg: cfg, pipeline: pipeline, library: library, store: s}, nil
}

// resolveTemplate picks the template body: an explicit file wins over a
// library name; with neither the default template is used.
func (a *app) resolveTemplate(name, file string) (string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read template file: %w", err)
		}
		return string(data), nil
	}
	if name != "" {
		tmpl, err := a.library.Get(name)
		if err != nil {
			return "", err
		}
		return tmpl.Body, nil
	}
	return a.library.Default().Body, nil
}

// readInput reads a file, or stdin when path is empty or "-".
func readInput(in io.Reader, path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// writeOutput writes to path, or to out when path is empty.
func writeOutput(out io.Writer, path, content string) error {
	if path == "" {
		_, err := io.WriteString(out, strings.TrimRight(content, "\n")+"\n")
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
