// Package domain models the messages exchanged with the building-simulation
// service upstream and the reporting consumers downstream.
//
// # Source Messages
//
// The simulation service publishes one JSON message per completed run to the
// source topic. The message key is the simulation ID:
//
//	{
//	  "simulation_id": "sim-2024-0193",
//	  "zone_names":    ["Living", "Bedroom 1", "Attic"],
//	  "zone_weights":  [{"zone": "ATTIC", "weight": 40}, {"zone": "living", "weight": 65}, ...],
//	  "dry_bulb":          [[...8760 °C...], ...],
//	  "relative_humidity": [[...8760 %...],  ...],
//	  "mean_radiant":      [[...8760 °C...], ...]
//	}
//
// Rows follow zone_names. Zone weights are usually floor areas taken from a
// different table of the simulation output, so they may come in any order and
// with different capitalisation; they are matched to zone names ignoring case
// and reordered to row order. Omitting zone_weights weights every zone
// equally; omitting zone_names names rows "Zone 000", "Zone 001", ...
//
// # Claim Check
//
// A year of hourly data for a large building easily exceeds the broker's
// message size limit. Such runs publish a matrix_ref instead of inline
// matrices:
//
//	"matrix_ref": {"bucket": "simulations", "key": "sim-2024-0193/matrices.json"}
//
// The referenced object holds the same three matrix fields. A payload carrying
// both inline matrices and a reference is rejected.
//
// # Reports
//
// Each analysed run yields one [AnalysisReport] on the sink topic, keyed by
// simulation ID, with headers:
//
//	report_id      deterministic SHA-256 of simulation ID and payload bytes
//	simulation_id  echoed from the source
//	at_risk_zones  number of zones classified at risk
//	analyzed_at    RFC 3339 UTC timestamp
//
// Report IDs are stable across redelivery, so consumers can deduplicate
// without coordination. See [generateID].
package domain
