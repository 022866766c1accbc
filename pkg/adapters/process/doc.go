// Package process runs allow-listed local commands, such as the desktop automation and OCR
// tools the desktop backend shells out to.
package process
