package services

import (
	"tradebill/api/internal/models"
)

// complianceNotes maps each trade type to its fixed disclosure paragraph.
var complianceNotes = map[models.TradeType]string{
	models.TradePlumbing: "This plumbing work was performed in accordance with local " +
		"plumbing codes and regulations. All fixtures and installations " +
		"are guaranteed for 1 year from date of completion. Keep this " +
		"invoice for warranty claims and tax records.",
	models.TradeElectrical: "This electrical work was performed in accordance with the " +
		"National Electrical Code and local regulations. All work is " +
		"guaranteed for 1 year from date of completion. Electrical " +
		"permit information available upon request. Keep this invoice " +
		"for warranty claims and tax records.",
	models.TradeHVAC: "This HVAC work was performed in accordance with industry " +
		"standards and local regulations. Equipment warranties may " +
		"require registration with manufacturer. All labor is guaranteed " +
		"for 1 year from date of completion. Keep this invoice for " +
		"warranty claims and tax records.",
}

// ComplianceNotes returns the disclosure paragraph for a trade type, or an
// empty string for unrecognized values.
func ComplianceNotes(trade models.TradeType) string {
	return complianceNotes[trade]
}
