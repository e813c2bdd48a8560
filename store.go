package evstore

import (
	"fmt"
	"log/slog"
)

// Store dispatches declared dataset type names to writers and readers.
// Create produces a tagged file through the mutable log write path; Open
// re-derives the tag and refuses family mismatches.
type Store struct {
	reg     *Registry
	logger  *slog.Logger
	verbose bool
}

// Options tune a Store. The zero value is valid.
type Options struct {
	Logger  *slog.Logger
	Verbose bool
}

func New(reg *Registry, o Options) *Store {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return &Store{
		reg:     reg,
		logger:  o.Logger,
		verbose: o.Verbose,
	}
}

// Create makes a new dataset of the given declared type at path and returns
// a write session. The type must be a mutable variant; creation is
// create-only and fails with ErrAlreadyExists on an existing path.
func (s *Store) Create(typeName, path string) (*Dataset, error) {
	dt, ok := s.reg.Lookup(typeName)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownType, typeName)
	}
	if !dt.Mutable {
		return nil, fmt.Errorf("dataset type %q is not mutable, cannot create", typeName)
	}

	w, err := Create(path, dt.Family, WriterOptions{Logger: s.logger})
	if err != nil {
		return nil, err
	}
	if s.verbose {
		s.logger.Info("dataset: created", slog.String("type", typeName), slog.String("path", path))
	}

	return &Dataset{
		typeName: typeName,
		path:     path,
		tag:      Tag{Family: dt.Family, Mutable: true, Version: int(tagVersion1)},
		writer:   w,
	}, nil
}

// Open loads the dataset at path as the given declared type and returns a
// read session.
//
// The file's tag must parse (otherwise the tag error, ErrCorruptHeader
// included, propagates unchanged) and its family must match the declared
// type's; a mismatch fails with TypeMismatchError and is never auto-coerced.
// The tag's mutability bit is not checked: an immutable view may read a
// still-mutable log.
func (s *Store) Open(typeName, path string) (*Dataset, error) {
	dt, ok := s.reg.Lookup(typeName)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownType, typeName)
	}

	tag, err := ReadTag(path)
	if err != nil {
		return nil, err
	}
	if tag.Family != dt.Family {
		err := &TypeMismatchError{Declared: typeName, Expected: dt.Family, Actual: tag.Family}
		s.logger.Warn("dataset: type mismatch", slog.String("type", typeName), slog.String("path", path), slog.Any("err", err))
		return nil, err
	}

	var r Reader
	switch dt.Family {
	case RowLog:
		r, err = openRowLogReader(path)
	case BinaryColumnar:
		r, err = openColumnarReader(path)
	}
	if err != nil {
		return nil, err
	}
	if s.verbose {
		s.logger.Info("dataset: opened", slog.String("type", typeName), slog.String("path", path), slog.String("tag", tag.String()))
	}

	return &Dataset{
		typeName: typeName,
		path:     path,
		tag:      tag,
		reader:   r,
	}, nil
}
