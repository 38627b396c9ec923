// Package domain models the farmer risk-advisory pipeline: weather
// snapshots, declarative advisory rules, advisory results, and outbound
// alerts.
//
// # Administrative hierarchy
//
// Ethiopia's administrative units nest Region → Zone → Woreda → Kebele. The
// kebele (village/neighborhood) is the geographic key for weather snapshots:
// all farmers in a kebele share one snapshot per freshness window. Kebele
// rows carry flattened woreda/zone labels for human-readable location
// strings; full hierarchy management belongs to the registration system, not
// this service.
//
// # Synthetic forecasts
//
// The weather source is a deterministic generator seeded from coordinates,
// not a live feed. Seeding:
//
//	seed    = ⌊(lat + lon) · 1000⌋ mod 1000
//	daySeed = (seed + 7·day) mod 100
//
// Each forecast day derives rainfall probability, rainfall depth, temperature
// range, and humidity from daySeed, so the same coordinates always produce
// the same 14-day window. See [SynthesizeForecast].
//
// # Risk classification
//
// Three-level scale (LOW, MEDIUM, HIGH) across four axes:
//
//	Drought: avg rainfall <5mm HIGH | <10mm MEDIUM | else LOW
//	Flood:   days with >15mm rain: >3 HIGH | >1 MEDIUM | else LOW
//	Heat:    max temp >35°C HIGH | >30°C MEDIUM | else LOW
//	Overall: highest risk among triggered advisory rules, LOW when none.
//
// Heat risk is derived directly from the forecast and does not feed into
// overall risk; it drives temperature alerts independently.
//
// # Rule conditions
//
// Rules are static configuration loaded once at startup. A rule matches when
// every present sub-condition matches; absent sub-conditions are wildcards.
// Risk-level conditions accept a single value or a set ("HIGH" or
// ["MEDIUM","HIGH"]); temperature bounds are explicit optional pointers so a
// zero bound is a real bound. See [Condition.Matches].
//
// # Alert lifecycle
//
// Alerts form an append-only delivery ledger:
//
//	QUEUED → SENT       delivery succeeded (terminal)
//	QUEUED → CANCELLED  consent revoked before delivery (terminal)
//	QUEUED → QUEUED     delivery failed, attempts < 3 (retried next pass)
//	QUEUED → FAILED     third delivery failure (terminal)
//
// Retry cadence is the dispatcher's invocation schedule; no in-process
// backoff timer exists. See [MaxDeliveryAttempts].
package domain
