package model

// CommandResult is the outcome of one parameter query on one device.
//
// Construct values with NewSuccess or NewFailure, which keep Success equal to
// ErrorMessage == "" and LineCount equal to len(OutputLines).
type CommandResult struct {
	DeviceName   string   `json:"device_name"`
	Parameter    string   `json:"parameter"`
	OutputLines  []string `json:"output_lines"`
	LineCount    int      `json:"line_count"`
	Success      bool     `json:"success"`
	ErrorMessage string   `json:"error_message,omitempty"`
}

// NewSuccess returns a successful result holding the filtered output lines.
func NewSuccess(device, parameter string, lines []string) CommandResult {
	if lines == nil {
		lines = []string{}
	}
	return CommandResult{
		DeviceName:  device,
		Parameter:   parameter,
		OutputLines: lines,
		LineCount:   len(lines),
		Success:     true,
	}
}

// NewFailure returns a failed result. An empty message is replaced so the
// result still reads as a failure.
func NewFailure(device, parameter, message string) CommandResult {
	if message == "" {
		message = "unknown error"
	}
	return CommandResult{
		DeviceName:   device,
		Parameter:    parameter,
		OutputLines:  []string{},
		Success:      false,
		ErrorMessage: message,
	}
}

// FailAll returns one failed result per parameter, all sharing message.
func FailAll(device string, parameters []string, message string) []CommandResult {
	results := make([]CommandResult, 0, len(parameters))
	for _, p := range parameters {
		results = append(results, NewFailure(device, p, message))
	}
	return results
}
