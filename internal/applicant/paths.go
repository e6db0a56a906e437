package applicant

// Answer paths collected by the wizard. Catalog hooks and field definitions
// refer to these instead of spelling paths inline.
const (
	PathNameFirst  = "name:first"
	PathNameMiddle = "name:middle"
	PathNameLast   = "name:last"
	PathNameSuffix = "name:suffix"

	PathChangingName  = "changing-name"
	PathNewNameFirst  = "new-name:first"
	PathNewNameMiddle = "new-name:middle"
	PathNewNameLast   = "new-name:last"

	PathBirthCity  = "birthplace:city"
	PathBirthState = "birthplace:state"

	PathSexAssigned  = "sex:assigned"
	PathSexRequested = "sex:requested"

	PathStreet = "address:street"
	PathCity   = "address:city"
	PathState  = "address:state"
	PathZip    = "address:zip"
	PathCounty = "county"

	PathPhone = "phone"
	PathEmail = "email"

	PathPassportHas    = "passport:has"
	PathPassportIssued = "passport:issued"
	PathPassportNumber = "passport:number"

	PathSSN = "ssn"

	PathCriminalRecord   = "criminal:record"
	PathPublicationWaive = "publication:waive"
	PathParentName       = "parent:name"
)
