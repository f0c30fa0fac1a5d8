package types

import "errors"

// Sentinel errors for enum parsing.
var (
	ErrUnknownLie       = errors.New("unknown lie")
	ErrUnknownRoundType = errors.New("unknown round type")
)
