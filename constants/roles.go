package constants

// PageRole names the semantic role a page plays inside an affidavit.
type PageRole string

const (
	RolePAN         PageRole = "pan"
	RoleUserDetails PageRole = "user_details"
)

// OCRLanguage is the tesseract language hint used for page classification.
const OCRLanguage = "hin+eng"

// PANKeywords mark the page carrying the PAN (Permanent Account Number).
var PANKeywords = []string{
	"पैन",
	"पीएएन",
	"स्थायी लेखा",
	"स्थायी लेखा संख्या",
	"Permanent Account",
	"PAN",
}

// UserDetailsKeywords mark the nomination/affidavit page with the deponent's details.
var UserDetailsKeywords = []string{
	"नाम-निर्देशन",
	"नाम निर्देशन पत्र",
	"निर्वाचन क्षेत्र",
	"विधान सभा",
	"शपथ",
	"आयु",
	"पिता",
	"पति",
	"निवासी",
	"राज्य",
	"जिला",
	"वित्तीय वर्ष",
	"आयकर",
	"शपथ पत्र",
	"राजनीतिक दल",
	"स्वतंत्र",
}

// Keywords returns the keyword set for a role.
func Keywords(role PageRole) []string {
	switch role {
	case RolePAN:
		return PANKeywords
	case RoleUserDetails:
		return UserDetailsKeywords
	default:
		return nil
	}
}
