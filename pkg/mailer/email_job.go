package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue by the user hooks.
// Template names one of the embedded templates; Data feeds it.
// Subject/Text/HTML are used verbatim when Template is empty.
type EmailJob struct {
	To       string         `json:"to"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
}
