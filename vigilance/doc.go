// Package vigilance retrieves Météo-France vigilance products (the national
// weather-warning map, its text bulletin and its map image) and turns them
// into row-oriented tables.
//
// # Data Source
//
// All three products come from the DPVigilance API, version v1:
//
//	cartevigilance/encours              warning levels per zone and phenomenon
//	textesvigilance/encours             bulletin text, 404 when nothing is published
//	vignettenationale-J-et-J1/encours   PNG map of today and tomorrow
//
// # Vigilance Conventions
//
// Echeance (forecast day):
//
//	"J"  today, "J1" tomorrow. Each carte carries one period per echeance
//	with its own validity window.
//
// Domains (zones):
//
//	Department numbers ("01".."95", "2A", "2B"), coastal zones ("9910"..),
//	and "FRA" for the whole country. Some payloads send numeric ids as JSON
//	numbers; they are normalized to strings.
//
// Phenomena:
//
//	1 vent, 2 pluie, 3 orages, 4 crues, 5 neige / verglas, 6 canicule,
//	7 grand froid, 8 avalanches, 9 vagues submersion.
//
// Colors (intensity, ordered):
//
//	1 Vert (no particular vigilance), 2 Jaune, 3 Orange, 4 Rouge.
//
// # Tables
//
// A carte yields two views. PhenomenonTable has one row per
// (zone, phenomenon, time window). TimelapseTable has one row per
// (zone, phenomenon) holding the highest color over every window of every
// period. Both keep the order in which entries appear in the payload, so the
// same payload always produces the same tables.
package vigilance
