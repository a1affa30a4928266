// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package model

// IOType identifies the shape of a value flowing between nodes. The model
// treats it as an opaque tag and only ever compares it for equality, so
// projects can introduce their own types beyond the built-in ones.
type IOType string

// Built-in IO types.
const (
	IOTypeFile      IOType = "FILE"
	IOTypeDirectory IOType = "DIRECTORY"
	IOTypeDataframe IOType = "DATAFRAME"
)
