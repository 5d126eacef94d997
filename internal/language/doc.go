// Package language normalizes ISO 639 language codes.
//
// Container metadata tags audio streams with ISO 639-2 codes ("eng", "ger")
// while the transcription API expects ISO 639-1 ("en", "de"). Both forms, and
// BCP 47 tags such as "en-US", resolve through golang.org/x/text/language.
package language
