package rdf

// Namespaces used by the object and event vocabularies.
const (
	NSRDF     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	NSRDFS    = "http://www.w3.org/2000/01/rdf-schema#"
	NSXSD     = "http://www.w3.org/2001/XMLSchema#"
	NSDC      = "http://purl.org/dc/elements/1.1/"
	NSDCTerms = "http://purl.org/dc/terms/"
	NSPROV    = "http://www.w3.org/ns/prov#"
	NSORE     = "http://www.openarchives.org/ore/terms/"
	NSFOAF    = "http://xmlns.com/foaf/0.1/"
	NSRMap    = "http://purl.org/ontology/rmap#"
)

// Core RDF and datatype terms.
const (
	RDFType       IRI = NSRDF + "type"
	RDFLangString IRI = NSRDF + "langString"
	XSDString     IRI = NSXSD + "string"
	XSDDateTime   IRI = NSXSD + "dateTime"
)

// Object classes.
const (
	ClassDiSCO IRI = NSRMap + "DiSCO"
	ClassAgent IRI = NSRMap + "Agent"
	ClassEvent IRI = NSRMap + "Event"
)

// Object description predicates.
const (
	DCDescription      IRI = NSDC + "description"
	DCTermsDescription IRI = NSDCTerms + "description"
	DCTermsCreator     IRI = NSDCTerms + "creator"
	OREAggregates      IRI = NSORE + "aggregates"
	FOAFName           IRI = NSFOAF + "name"
	RMapProviderID     IRI = NSRMap + "providerId"
	RMapIdentityProv   IRI = NSRMap + "identityProvider"
	RMapUserAuthID     IRI = NSRMap + "userAuthId"
	PROVWasGenerated   IRI = NSPROV + "wasGeneratedBy"
)

// Event predicates.
const (
	RMapEventType         IRI = NSRMap + "eventType"
	RMapEventTargetType   IRI = NSRMap + "eventTargetType"
	RMapHasSourceObject   IRI = NSRMap + "hasSourceObject"
	RMapDerivedObject     IRI = NSRMap + "derivedObject"
	RMapInactivatedObject IRI = NSRMap + "inactivatedObject"
	RMapTombstonedObject  IRI = NSRMap + "tombstonedObject"
	RMapDeletedObject     IRI = NSRMap + "deletedObject"
	RMapUpdatedObject     IRI = NSRMap + "updatedObject"
	RMapLineageProgenitor IRI = NSRMap + "lineageProgenitor"
	PROVGenerated         IRI = NSPROV + "generated"
	PROVWasAssociatedWith IRI = NSPROV + "wasAssociatedWith"
	PROVStartedAtTime     IRI = NSPROV + "startedAtTime"
	PROVEndedAtTime       IRI = NSPROV + "endedAtTime"
	PROVUsed              IRI = NSPROV + "used"
)

// Event type and target type values.
const (
	EventTypeCreation     IRI = NSRMap + "creation"
	EventTypeUpdate       IRI = NSRMap + "update"
	EventTypeDerivation   IRI = NSRMap + "derivation"
	EventTypeInactivation IRI = NSRMap + "inactivation"
	EventTypeTombstone    IRI = NSRMap + "tombstone"
	EventTypeDeletion     IRI = NSRMap + "deletion"
	EventTypeReplace      IRI = NSRMap + "replace"

	TargetDiSCO IRI = NSRMap + "DiSCO"
	TargetAgent IRI = NSRMap + "Agent"
)

// Prefixes maps the conventional prefix of each namespace to its IRI.
func Prefixes() map[string]string {
	return map[string]string{
		"rdf":     NSRDF,
		"rdfs":    NSRDFS,
		"xsd":     NSXSD,
		"dc":      NSDC,
		"dcterms": NSDCTerms,
		"prov":    NSPROV,
		"ore":     NSORE,
		"foaf":    NSFOAF,
		"rmap":    NSRMap,
	}
}
