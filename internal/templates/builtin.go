package templates

import (
	"fmt"
	"strings"

	"scribe/internal/schema"
)

// Template ids shipped with the application.
const (
	IDSummary             = "summary"
	IDSOAPGerman          = "soap-de"
	IDSOAPEnglish         = "soap-en"
	IDSOAPFrench          = "soap-fr"
	IDBriefNote           = "brief-note-de"
	IDPsychologyNarrative = "psychology-narrative-de"
	IDProblemOriented     = "problem-oriented-de"
)

// Category is one entry of the problem-oriented taxonomy. The remote service
// receives it as prompt text; nothing local interprets the codes.
type Category struct {
	Code  string
	Label string
}

// ProblemCategories is the default chapter list of the problem-oriented
// note. A templates file can replace it with the practice's own taxonomy
// (see LoadFile).
var ProblemCategories = []Category{
	{Code: "A", Label: "Allgemein und unspezifisch"},
	{Code: "B", Label: "Blut, blutbildende Organe und Immunsystem"},
	{Code: "D", Label: "Verdauungssystem"},
	{Code: "F", Label: "Auge"},
	{Code: "H", Label: "Ohr"},
	{Code: "K", Label: "Kreislauf"},
	{Code: "L", Label: "Bewegungsapparat"},
	{Code: "N", Label: "Nervensystem"},
	{Code: "P", Label: "Psyche"},
	{Code: "R", Label: "Atmungsorgane"},
	{Code: "S", Label: "Haut"},
	{Code: "T", Label: "Endokrines System, Stoffwechsel und Ernährung"},
	{Code: "U", Label: "Urologisch"},
	{Code: "W", Label: "Schwangerschaft, Geburt und Familienplanung"},
	{Code: "X", Label: "Weibliches Genitale"},
	{Code: "Y", Label: "Männliches Genitale"},
	{Code: "Z", Label: "Soziale Probleme"},
}

// Builtin returns the compiled-in templates; the first one is the default.
func Builtin() []Template {
	return []Template{
		{
			ID:   IDSummary,
			Name: "Summary",
			Schema: schema.Object(
				schema.P("summary", schema.String().WithDefault("")),
				schema.P("keyFindings", schema.Array(schema.String()).WithDefault([]any{})),
			).WithRequired("summary"),
		},
		{
			ID:           IDSOAPGerman,
			Name:         "SOAP-Notiz (Deutsch)",
			Schema:       soapSchema(),
			Instructions: soapInstructionsGerman,
		},
		{
			ID:           IDSOAPEnglish,
			Name:         "SOAP note (English)",
			Schema:       soapSchema(),
			Instructions: soapInstructionsEnglish,
		},
		{
			ID:           IDSOAPFrench,
			Name:         "Note SOAP (Français)",
			Schema:       soapSchema(),
			Instructions: soapInstructionsFrench,
		},
		{
			ID:   IDBriefNote,
			Name: "Kurznotiz",
			Schema: schema.Object(
				schema.P("title", schema.String()),
				schema.P("summary", schema.String().WithDefault("")),
			).WithRequired("summary"),
			Instructions: briefNoteInstructions,
		},
		{
			ID:   IDPsychologyNarrative,
			Name: "Psychologischer Verlaufsbericht",
			Schema: schema.Object(
				schema.P("title", schema.String()),
				schema.P("summary", schema.String().WithDefault("")),
				schema.P("themes", schema.Array(schema.String()).WithDefault([]any{})),
			).WithRequired("summary"),
			Instructions: psychologyNarrativeInstructions,
		},
		ProblemOriented(ProblemCategories),
	}
}

// ProblemOriented builds the problem-oriented note for a category list. The
// schema's category enum and the instruction listing follow the list order.
func ProblemOriented(categories []Category) Template {
	return Template{
		ID:           IDProblemOriented,
		Name:         "Problemorientierte Notiz",
		Schema:       problemOrientedSchema(categories),
		Instructions: problemOrientedInstructions(categories),
	}
}

func validateCategories(categories []Category) error {
	seen := make(map[string]bool, len(categories))
	for i, c := range categories {
		if strings.TrimSpace(c.Code) == "" || strings.TrimSpace(c.Label) == "" {
			return fmt.Errorf("category %d needs a code and a label", i+1)
		}
		if seen[c.Code] {
			return fmt.Errorf("duplicate category code %q", c.Code)
		}
		seen[c.Code] = true
	}
	return nil
}

func soapSchema() *schema.Schema {
	return schema.Object(
		schema.P("subjective", schema.String().WithDefault("")),
		schema.P("objective", schema.String().WithDefault("")),
		schema.P("assessment", schema.String().WithDefault("")),
		schema.P("plan", schema.String().WithDefault("")),
	).WithRequired("subjective", "objective", "assessment", "plan")
}

func problemOrientedSchema(categories []Category) *schema.Schema {
	codes := make([]string, 0, len(categories))
	for _, c := range categories {
		codes = append(codes, c.Code)
	}
	problem := schema.Object(
		schema.P("category", schema.Enum(codes...)),
		schema.P("problem", schema.String()),
		schema.P("findings", schema.String().WithDefault("")),
		schema.P("procedure", schema.String().WithDefault("")),
	).WithRequired("category", "problem")

	return schema.Object(
		schema.P("title", schema.String()),
		schema.P("summary", schema.String().WithDefault("")),
		schema.P("problems", schema.Array(problem).WithDefault([]any{})),
	).WithRequired("summary", "problems")
}

func problemOrientedInstructions(categories []Category) string {
	var b strings.Builder
	b.WriteString(problemOrientedPreamble)
	b.WriteString("\n\nKategorien:\n")
	for _, c := range categories {
		fmt.Fprintf(&b, "%s - %s\n", c.Code, c.Label)
	}
	b.WriteString("\n")
	b.WriteString(problemOrientedFooter)
	return b.String()
}

const soapInstructionsGerman = `Erstelle aus dem Gespräch eine ärztliche SOAP-Notiz auf Deutsch.
Subjektiv: Beschwerden und Anamnese in den Worten der Patientin oder des Patienten.
Objektiv: Befunde, Messwerte und Untersuchungsergebnisse.
Beurteilung: Einschätzung und Verdachtsdiagnosen.
Prozedere: nächste Schritte, Therapie und Kontrollen.
Schreibe sachlich im Telegrammstil, ohne Angaben zu erfinden. Leere Abschnitte bleiben leer.`

const soapInstructionsEnglish = `Write a clinical SOAP note in English from the conversation.
Subjective: complaints and history as reported by the patient.
Objective: findings, measurements and examination results.
Assessment: clinical impression and working diagnoses.
Plan: next steps, treatment and follow-up.
Be concise and factual; never invent information. Leave a section empty when nothing was said about it.`

const soapInstructionsFrench = `Rédige une note SOAP médicale en français à partir de la conversation.
Subjectif : plaintes et anamnèse rapportées par le patient.
Objectif : constatations, mesures et résultats d'examen.
Appréciation : évaluation clinique et diagnostics retenus.
Plan : suite de la prise en charge, traitement et contrôles.
Reste factuel et concis, sans inventer d'informations. Laisse vide une section non abordée.`

const briefNoteInstructions = `Fasse das Gespräch in einer kurzen Notiz auf Deutsch zusammen.
Titel: höchstens acht Wörter.
Zusammenfassung: drei bis fünf Sätze mit den wichtigsten Punkten und vereinbarten nächsten Schritten.`

const psychologyNarrativeInstructions = `Verfasse einen psychologischen Verlaufsbericht in Fliesstext auf Deutsch.
Beschreibe Anlass der Sitzung, berichtete Befindlichkeit, besprochene Themen, beobachtetes Verhalten und vereinbarte Schritte.
Verwende die dritte Person und neutrale, nicht wertende Sprache. Nenne die Hauptthemen zusätzlich als Liste.`

const problemOrientedPreamble = `Erstelle eine problemorientierte ärztliche Notiz auf Deutsch.
Ordne jedes besprochene Problem genau einer Kategorie zu und verwende dafür ausschliesslich den Kategoriecode.`

const problemOrientedFooter = `Pro Problem: kurze Bezeichnung, relevante Befunde und das geplante Prozedere.
Die Zusammenfassung fasst den Konsultationsgrund in zwei Sätzen zusammen.`
