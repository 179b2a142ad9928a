package service

import "medisync/internal/model"

// taskTemplates are the default task names offered when assigning work for a department.
var taskTemplates = map[model.Department][]string{
	model.DepartmentEmergency: {
		"Initial assessment and triage",
		"Administer pain medication",
		"Order diagnostic tests",
		"Schedule specialist consultation",
		"Prepare for emergency procedure",
	},
	model.DepartmentCardiology: {
		"ECG monitoring",
		"Administer cardiac medication",
		"Schedule stress test",
		"Prepare for echocardiogram",
		"Blood pressure monitoring",
	},
	model.DepartmentNeurology: {
		"Neurological assessment",
		"Monitor brain activity",
		"Schedule MRI scan",
		"Administer neurological medication",
		"Physical therapy session",
	},
	model.DepartmentOrthopedics: {
		"Change wound dressing",
		"Schedule physical therapy",
		"Post-surgery assessment",
		"Pain management",
		"Schedule follow-up X-ray",
	},
	model.DepartmentGeneral: {
		"Vital signs check",
		"Administer medication",
		"Collect lab samples",
		"Patient consultation",
		"Discharge preparation",
	},
	model.DepartmentPediatrics: {
		"Administer vaccination",
		"Growth assessment",
		"Parent consultation",
		"Developmental screening",
		"Schedule follow-up appointment",
	},
}

// TaskTemplate returns a copy of the default task names for a department.
func TaskTemplate(department model.Department) []string {
	return append([]string(nil), taskTemplates[department]...)
}
