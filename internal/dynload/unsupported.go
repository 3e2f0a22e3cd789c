// Copyright 2023 Uber Technologies, Inc.
// Licensed under the MIT License

//go:build !darwin && !linux

package dynload

type Library struct{}

func Open(path string) (*Library, error) {
	return nil, ErrUnsupported
}

func (l *Library) String(sym string) (string, error) {
	return "", ErrUnsupported
}

func (l *Library) Close() error {
	return nil
}
