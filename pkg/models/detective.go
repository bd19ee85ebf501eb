package models

import "time"

// DetectiveStatus is the outcome of a single agent's run.
type DetectiveStatus string

const (
	DetectiveCompleted DetectiveStatus = "completed"
	DetectiveFailed    DetectiveStatus = "failed"
)

// DetectiveRecord is one agent's conclusion over the shared snapshot.
type DetectiveRecord struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Persona           string          `json:"persona"`
	Specialty         string          `json:"specialty"`
	AnalysisFocus     string          `json:"analysis_focus"`
	Status            DetectiveStatus `json:"status"`
	Error             string          `json:"error,omitempty"`
	RiskScore         float64         `json:"risk_score"`
	RiskLevel         RiskLevel       `json:"risk_level"`
	Confidence        float64         `json:"confidence"`
	Conclusion        string          `json:"conclusion"`
	Methodology       string          `json:"methodology"`
	SampleTransactions []ParsedTransaction `json:"sample_transactions,omitempty"`
	LinkedAddresses   []string        `json:"linked_addresses,omitempty"`
	ProgramAddresses  []string        `json:"program_addresses,omitempty"`
	AnalysisResults   []string        `json:"analysis_results,omitempty"`
}

// InvestigationStatus is the overall outcome of a comprehensive run.
type InvestigationStatus string

const (
	StatusCompleted     InvestigationStatus = "completed"
	StatusPartial       InvestigationStatus = "partial"
	StatusAnalysisError InvestigationStatus = "analysis_error"
)

// Investigation is the result of a comprehensive, multi-detective run.
type Investigation struct {
	InvestigationID          string                     `json:"investigation_id"`
	WalletAddress            string                     `json:"wallet_address"`
	IndividualResults        map[string]DetectiveRecord `json:"individual_results"`
	SuccessfulInvestigations int                        `json:"successful_investigations"`
	FailedInvestigations     int                        `json:"failed_investigations"`
	ConsensusRiskScore       int                        `json:"consensus_risk_score"`
	ConsensusRiskLevel       RiskLevel                  `json:"consensus_risk_level"`
	Timestamp                time.Time                  `json:"timestamp"`
	FrameworkStatus          InvestigationStatus        `json:"framework_status"`
}
