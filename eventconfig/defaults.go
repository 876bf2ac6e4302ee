package eventconfig

import "example.com/backstage/analytics/domain"

// correctionAnnotation is shared by the correction actions of every built-in type
var correctionAnnotation = []FieldConfig{
	{ID: "reason", Type: "TEXT", Analytics: true},
	{ID: "correction.request.reason", Type: "TEXT", Analytics: true},
	{ID: "correction.request.evidence", Type: "FILE", Analytics: false},
}

// Defaults returns the built-in BIRTH and DEATH configurations
func Defaults() []EventConfig {
	return []EventConfig{birth(), death()}
}

func birth() EventConfig {
	return EventConfig{
		ID: domain.EventTypeBirth,
		Declaration: []Page{
			{
				ID: "child",
				Fields: []FieldConfig{
					{ID: "child.firstname", Type: "TEXT", Analytics: false},
					{ID: "child.surname", Type: "TEXT", Analytics: false},
					{ID: "child.gender", Type: "SELECT", Analytics: true},
					{ID: "child.dob", Type: "DATE", Analytics: true},
					{ID: "child.placeOfBirth", Type: "SELECT", Analytics: true},
					{ID: "child.birthLocation", Type: "LOCATION", Analytics: true},
					{ID: "child.weightAtBirth", Type: "NUMBER", Analytics: true},
					{ID: "child.attendantAtBirth", Type: "SELECT", Analytics: true},
					{ID: "child.birthType", Type: "SELECT", Analytics: true},
				},
			},
			{
				ID: "informant",
				Fields: []FieldConfig{
					{ID: "informant.relation", Type: "SELECT", Analytics: true},
					{ID: "informant.email", Type: "EMAIL", Analytics: false},
					{ID: "informant.phoneNo", Type: "PHONE", Analytics: false},
				},
			},
			{
				ID: "mother",
				Fields: []FieldConfig{
					{ID: "mother.firstname", Type: "TEXT", Analytics: false},
					{ID: "mother.surname", Type: "TEXT", Analytics: false},
					{ID: "mother.dob", Type: "DATE", Analytics: false},
					{ID: "mother.age", Type: "NUMBER", Analytics: true},
					{ID: "mother.nationality", Type: "COUNTRY", Analytics: true},
					{ID: "mother.maritalStatus", Type: "SELECT", Analytics: true},
					{ID: "mother.educationalAttainment", Type: "SELECT", Analytics: true},
					{ID: "mother.occupation", Type: "TEXT", Analytics: true},
				},
			},
		},
		Actions: []ActionConfig{
			{Type: domain.ActionRequestCorrection, Annotation: correctionAnnotation},
			{Type: domain.ActionApproveCorrection, Annotation: correctionAnnotation},
			{Type: domain.ActionRejectCorrection, Annotation: correctionAnnotation},
			{Type: domain.ActionCorrect, Annotation: correctionAnnotation},
			{Type: domain.ActionReject, Annotation: []FieldConfig{{ID: "reason", Type: "TEXT", Analytics: true}}},
			{Type: domain.ActionPrintCertificate, Annotation: []FieldConfig{
				{ID: "collector.requesterId", Type: "SELECT", Analytics: true},
				{ID: "templateId", Type: "SELECT", Analytics: true},
			}},
		},
		Derived: []DerivedField{
			{ID: "child.age.days", Kind: DerivedAgeInDays, Source: "child.dob", Analytics: true},
		},
	}
}

func death() EventConfig {
	return EventConfig{
		ID: domain.EventTypeDeath,
		Declaration: []Page{
			{
				ID: "deceased",
				Fields: []FieldConfig{
					{ID: "deceased.firstname", Type: "TEXT", Analytics: false},
					{ID: "deceased.surname", Type: "TEXT", Analytics: false},
					{ID: "deceased.gender", Type: "SELECT", Analytics: true},
					{ID: "deceased.dob", Type: "DATE", Analytics: true},
					{ID: "deceased.nationality", Type: "COUNTRY", Analytics: true},
					{ID: "deceased.maritalStatus", Type: "SELECT", Analytics: true},
				},
			},
			{
				ID: "eventDetails",
				Fields: []FieldConfig{
					{ID: "eventDetails.date", Type: "DATE", Analytics: true},
					{ID: "eventDetails.causeOfDeath", Type: "SELECT", Analytics: true},
					{ID: "eventDetails.placeOfDeath", Type: "SELECT", Analytics: true},
					{ID: "eventDetails.deathLocation", Type: "LOCATION", Analytics: true},
				},
			},
			{
				ID: "informant",
				Fields: []FieldConfig{
					{ID: "informant.relation", Type: "SELECT", Analytics: true},
					{ID: "informant.email", Type: "EMAIL", Analytics: false},
				},
			},
		},
		Actions: []ActionConfig{
			{Type: domain.ActionRequestCorrection, Annotation: correctionAnnotation},
			{Type: domain.ActionApproveCorrection, Annotation: correctionAnnotation},
			{Type: domain.ActionRejectCorrection, Annotation: correctionAnnotation},
			{Type: domain.ActionCorrect, Annotation: correctionAnnotation},
			{Type: domain.ActionReject, Annotation: []FieldConfig{{ID: "reason", Type: "TEXT", Analytics: true}}},
		},
	}
}
