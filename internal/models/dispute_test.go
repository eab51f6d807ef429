package models

import "testing"

func TestIsValidDisputeOutcome(t *testing.T) {
	for _, valid := range []string{DisputeOutcomeReleaseToBuyer, DisputeOutcomeRefundToSeller} {
		if !IsValidDisputeOutcome(valid) {
			t.Errorf("IsValidDisputeOutcome(%q) = false", valid)
		}
	}
	for _, invalid := range []string{"", "split", "release"} {
		if IsValidDisputeOutcome(invalid) {
			t.Errorf("IsValidDisputeOutcome(%q) = true", invalid)
		}
	}
}

func TestIsValidEvidenceType(t *testing.T) {
	for _, valid := range []string{EvidenceTypeScreenshot, EvidenceTypeBankStatement, EvidenceTypeMessage} {
		if !IsValidEvidenceType(valid) {
			t.Errorf("IsValidEvidenceType(%q) = false", valid)
		}
	}
	for _, invalid := range []string{"", "video", "Screenshot"} {
		if IsValidEvidenceType(invalid) {
			t.Errorf("IsValidEvidenceType(%q) = true", invalid)
		}
	}
}
