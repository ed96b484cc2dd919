package llm

// UserFieldsPrompt asks for the deponent's details from the user-details page.
const UserFieldsPrompt = `This is the user-details page of an Indian affidavit.

Extract ONLY the following details if they are present:
1. Full name
2. Father's / spouse's name
3. Age
4. Full address
5. Phone number

Translate any Hindi (or other non-English) text to English.

Return STRICT JSON only, with exactly these keys:
{
  "name": "...",
  "guardians_name": "...",
  "age": "...",
  "address": "...",
  "phone": "..."
}

Rules:
- Use null for any field that is not present.
- The JSON must be valid.
- Do NOT include any explanation or additional text.`

// PANPrompt asks for the PAN and a self-reported confidence from the PAN page.
const PANPrompt = `You are given an image of an Indian affidavit page that may contain a PAN card or PAN number.

Extract:
1. The PAN (Permanent Account Number)
2. A confidence score for the extracted PAN

PAN format:
- Exactly 10 characters
- Pattern AAAAA9999A: 5 uppercase letters, 4 digits, 1 uppercase letter

Extraction rules:
- Look under or near headings such as "पैन", "पीएएन", "स्थायी लेखा", "स्थायी लेखा संख्या", "Permanent Account Number", "PAN"
- Extract ONLY a PAN that is visible in the image
- Do NOT guess or infer missing characters
- If a valid PAN is not clearly visible, return null for "pan"

Return ONLY a valid JSON object in this format:
{
  "pan": "ABCDE1234F",
  "confidence_score": 0.92
}

Confidence score guidelines:
- Value between 0 and 1
- High (0.85-1.0): PAN is clearly readable and fully visible
- Medium (0.6-0.84): PAN is visible but slightly unclear
- Low (0.3-0.59): PAN is partially visible or noisy
- If "pan" is null, "confidence_score" must be 0.0

Do NOT include any explanation or additional text.`

// PromptFor returns the fixed instruction template for a task.
func PromptFor(task Task) string {
	if task == TaskPANFields {
		return PANPrompt
	}
	return UserFieldsPrompt
}
