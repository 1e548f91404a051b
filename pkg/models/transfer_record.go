package models

// TransferRecord is one observed native-asset outflow attributed to a victim,
// persisted inside that victim's rolling transfer window.
type TransferRecord struct {
	From           string `json:"from"`
	FromNonce      uint64 `json:"fromNonce"`
	FundingAddress string `json:"fundingAddress"`
	LatestTo       string `json:"latestTo"`
	Value          string `json:"value"` // decimal base-unit string
	Timestamp      int64  `json:"timestamp"`
}
