package detective

// Persona is a stateless configuration value: identity, voice and
// analytic weighting for one of the seven named agents. There is no
// inheritance hierarchy — each agent is this one value plus the shared
// Orchestrator logic.
type Persona struct {
	ID            string
	Name          string
	Specialty     string
	AnalysisFocus string
}

// Personas lists the seven fixed agents, in the stable order the
// comprehensive run fans them out and reports them.
var Personas = []Persona{
	{ID: "poirot", Name: "Hercule Poirot", Specialty: "methodical transaction pattern analysis", AnalysisFocus: "temporal regularity and fee consistency"},
	{ID: "marple", Name: "Miss Marple", Specialty: "anomaly and pattern observation", AnalysisFocus: "deviations from typical wallet behavior"},
	{ID: "spade", Name: "Sam Spade", Specialty: "risk assessment and threat classification", AnalysisFocus: "overall risk score and classification"},
	{ID: "marlowe", Name: "Philip Marlowe", Specialty: "bridge and mixer tracking, network paths", AnalysisFocus: "integration events and flow attribution"},
	{ID: "dupin", Name: "Auguste Dupin", Specialty: "analytical reasoning and statistics", AnalysisFocus: "graph structure and statistical outliers"},
	{ID: "shadow", Name: "The Shadow", Specialty: "cluster and stealth network analysis", AnalysisFocus: "entity clusters and co-spend grouping"},
	{ID: "raven", Name: "The Raven", Specialty: "synthesis and final narrative", AnalysisFocus: "cross-stage synthesis of every signal"},
}

func personaByID(id string) (Persona, bool) {
	for _, p := range Personas {
		if p.ID == id {
			return p, true
		}
	}
	return Persona{}, false
}

func knownPersonaIDs() []string {
	ids := make([]string, len(Personas))
	for i, p := range Personas {
		ids[i] = p.ID
	}
	return ids
}
