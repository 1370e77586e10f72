package parser

import (
	"context"
	"fmt"
)

type SourceType string

const (
	SOURCE_ZIP      SourceType = "zip"
	SOURCE_DIR      SourceType = "dir"
	SOURCE_POSTGRES SourceType = "postgres"
)

// SourceOptions names where a timetable is read from. Path is a file or
// directory for zip and dir sources and a connection string for postgres.
type SourceOptions struct {
	Type SourceType `yaml:"type" validate:"required,oneof=zip dir postgres"`
	Path string     `yaml:"path" validate:"required"`
}

func LoadTimetable(ctx context.Context, source SourceOptions) (*Timetable, error) {
	switch source.Type {
	case SOURCE_ZIP:
		return ParseGtfsZipFile(source.Path)
	case SOURCE_DIR:
		return ParseGtfsDir(source.Path)
	case SOURCE_POSTGRES:
		return LoadGtfsPostgres(ctx, source.Path)
	default:
		return nil, fmt.Errorf("unknown timetable source %q", source.Type)
	}
}
