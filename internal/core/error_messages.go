package core

// error_messages.go turns technical errors into messages a user can act on.
//
// # Error Codes Reference
//
// File errors (FILE001-FILE099), raised while receiving and parsing uploads:
//
//	FILE001 - File too large: the upload exceeds the size limit
//	FILE002 - Invalid CSV: the file is not well-formed comma-separated text
//	FILE004 - No file: the request carried no file
//	FILE005 - Empty file: no header or no data rows
//	FILE006 - Unsupported format: the extension is not .csv or .xlsx
//	          The message names the extension, e.g. "File format .txt not supported"
//	FILE007 - Invalid spreadsheet: the workbook could not be opened
//
// Dataset errors (DS001-DS099), raised by cleaning, selection and charts:
//
//	DS001 - Column not found
//	DS002 - No columns selected
//	DS003 - Not enough numeric columns to chart (a warning)
//	DS004 - File not found in this workspace
//	DS005 - Workspace expired
//	DS006 - Workspace is full
//
// Upload errors (UPL001-UPL099):
//
//	UPL001 - Too many files in one upload request
//	UPL002 - System busy: every upload slot is taken
//	UPL004 - Request cancelled
//	UPL005 - Request timed out
//
// Request errors: REQ001 malformed or invalid API request body.
//
// Rate limiting: RATE001. Fallback: ERR000, check the logs for the
// technical error.
//
// Sentinel errors are matched with errors.Is first. Errors from outside the
// application (net/http, multipart) are then matched by case-insensitive
// substring; the first matching pattern wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/datasweeper/internal/dataset"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

var (
	msgTooLarge = UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file into smaller files",
		Code:    "FILE001",
	}
	msgInvalidCSV = UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Ensure the file is comma-separated with a header row and consistent columns",
		Code:    "FILE002",
	}
	msgNoFile = UserMessage{
		Message: "No file was selected",
		Action:  "Choose one or more .csv or .xlsx files to upload",
		Code:    "FILE004",
	}
	msgEmptyFile = UserMessage{
		Message: "The uploaded file has no data rows",
		Action:  "Upload a file with a header row and at least one data row",
		Code:    "FILE005",
	}
	msgUnsupported = UserMessage{
		Message: "File format not supported",
		Action:  "Upload a .csv or .xlsx file",
		Code:    "FILE006",
	}
	msgInvalidSpreadsheet = UserMessage{
		Message: "File is not a readable Excel workbook",
		Action:  "Re-save the workbook as .xlsx and upload it again",
		Code:    "FILE007",
	}
	msgColumnNotFound = UserMessage{
		Message: "Column not found",
		Action:  "Pick columns from the list shown for this file",
		Code:    "DS001",
	}
	msgNoColumns = UserMessage{
		Message: "No columns selected",
		Action:  "Select at least one column to keep",
		Code:    "DS002",
	}
	msgNotEnoughNumeric = UserMessage{
		Message: "Not enough numeric columns to display a bar chart",
		Action:  "Please select more columns",
		Code:    "DS003",
	}
	msgFileNotFound = UserMessage{
		Message: "File not found in this workspace",
		Action:  "Upload the file again",
		Code:    "DS004",
	}
	msgSessionNotFound = UserMessage{
		Message: "Your workspace has expired",
		Action:  "Reload the page and upload your files again",
		Code:    "DS005",
	}
	msgSessionFull = UserMessage{
		Message: "This workspace holds the maximum number of files",
		Action:  "Remove a file before uploading another",
		Code:    "DS006",
	}
	msgTooManyFiles = UserMessage{
		Message: "Too many files in one upload",
		Action:  "Upload fewer files at a time",
		Code:    "UPL001",
	}
	msgBusy = UserMessage{
		Message: "System is busy processing other uploads",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "UPL005",
	}
	msgInvalidRequest = UserMessage{
		Message: "The request is invalid",
		Action:  "Check the request body and try again",
		Code:    "REQ001",
	}
	msgRateLimited = UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}
)

// errorTargets maps sentinel errors to user messages. Order matters only
// when one error wraps several sentinels.
var errorTargets = []struct {
	target error
	msg    UserMessage
}{
	{ErrFileTooLarge, msgTooLarge},
	{ErrNoFile, msgNoFile},
	{dataset.ErrUnsupportedFormat, msgUnsupported},
	{dataset.ErrEmptyFile, msgEmptyFile},
	{dataset.ErrInvalidCSV, msgInvalidCSV},
	{dataset.ErrInvalidSpreadsheet, msgInvalidSpreadsheet},
	{dataset.ErrColumnNotFound, msgColumnNotFound},
	{dataset.ErrNoColumns, msgNoColumns},
	{dataset.ErrNotEnoughNumeric, msgNotEnoughNumeric},
	{ErrFileNotFound, msgFileNotFound},
	{ErrSessionNotFound, msgSessionNotFound},
	{ErrSessionFull, msgSessionFull},
	{ErrTooManyFiles, msgTooManyFiles},
	{ErrTooManyUploads, msgBusy},
	{ErrInvalidRequest, msgInvalidRequest},
	{ErrRateLimited, msgRateLimited},
	{context.Canceled, msgCancelled},
	{context.DeadlineExceeded, msgTimeout},
}

// errorPatterns catches errors that arrive as plain text from libraries.
var errorPatterns = []struct {
	pattern string
	msg     UserMessage
}{
	{"request body too large", msgTooLarge},
	{"file too large", msgTooLarge},
	{"no such file", msgNoFile},
	{"no file provided", msgNoFile},
	{"multipart", msgNoFile},
	{"rate limit", msgRateLimited},
	{"deadline exceeded", msgTimeout},
	{"timeout", msgTimeout},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// An unsupported-format error keeps the offending extension in its message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, t := range errorTargets {
		if !errors.Is(err, t.target) {
			continue
		}
		msg := t.msg
		var fe *dataset.FormatError
		if errors.As(err, &fe) {
			msg.Message = fe.Error()
		}
		return msg
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
