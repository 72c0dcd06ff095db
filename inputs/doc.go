// Package inputs provides typed input wrappers that coerce values from either
// backend at a boundary.
//
// DataInput and MessageInput validate with schema.Check and keep the caller's
// value as is; every read goes through the value's own Field accessor, so a
// standalone Message and a full Message are handled identically. Inputs are
// records themselves and take part in the same compatibility model.
package inputs
