// SPDX-License-Identifier: MIT

package vapi

// CallRequest is the provider payload for placing an outbound call. The
// variable values personalize the assistant's conversation.
type CallRequest struct {
	AssistantID        string             `json:"assistantId"`
	PhoneNumberID      string             `json:"phoneNumberId"`
	Customer           Customer           `json:"customer"`
	AssistantOverrides AssistantOverrides `json:"assistantOverrides,omitempty"`
}

// Customer identifies the callee.
type Customer struct {
	Number string `json:"number"`
	Name   string `json:"name,omitempty"`
}

// AssistantOverrides carries per-call template variables.
type AssistantOverrides struct {
	VariableValues map[string]string `json:"variableValues,omitempty"`
}

// Call is the provider's view of one phone call.
type Call struct {
	ID           string    `json:"id"`
	Status       string    `json:"status"`
	Summary      string    `json:"summary,omitempty"`
	RecordingURL string    `json:"recordingUrl,omitempty"`
	EndedReason  string    `json:"endedReason,omitempty"`
	Analysis     *Analysis `json:"analysis,omitempty"`
}

// Analysis holds post-call results; the summary may live here instead of
// on the call itself depending on provider version.
type Analysis struct {
	Summary string `json:"summary,omitempty"`
}

// EffectiveSummary returns the call summary regardless of where the
// provider placed it.
func (c *Call) EffectiveSummary() string {
	if c.Summary != "" {
		return c.Summary
	}
	if c.Analysis != nil {
		return c.Analysis.Summary
	}
	return ""
}

// VoiceUpdate is the assistant-update payload binding a cloned voice.
type VoiceUpdate struct {
	Voice Voice `json:"voice"`
}

// Voice names a synthesized voice by provider and id.
type Voice struct {
	Provider string `json:"provider"`
	VoiceID  string `json:"voiceId"`
}
