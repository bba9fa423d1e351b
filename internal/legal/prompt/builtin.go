// Package prompt holds the prompt templates sent to the language model. Every
// template is a {System, User} pair with {{placeholder}} substitution; built-in
// templates can be overridden by TOML files in the configured prompt directories.
package prompt

// Template names.
const (
	Chat     = "chat"
	Analysis = "analysis"
	Risk     = "risk"
	Generate = "generate"
	Research = "research"
)

// Names lists every template name in display order.
var Names = []string{Chat, Analysis, Risk, Generate, Research}

const plainText = `Generate the response without any bold or special characters.
Use simple characters that are supported by basic text editors like notepad.
Avoid smart quotes, em-dashes, or any other characters that might not display correctly in basic text editors.`

var builtin = map[string]Template{
	Chat: {
		System: `You are an expert legal AI assistant specialized in contract law, compliance, and regulations.`,
		User: `User query: {{input}}

Provide a helpful, accurate response about the legal query. If you're unsure, state clearly what you don't know.
If the question is about specific jurisdiction laws that you're not confident about, indicate that limitation.
Provide information based on the Indian constitution only.

` + plainText,
	},
	Analysis: {
		System: `You are an expert legal AI assistant. Analyze the following legal document:`,
		User: `{{document}}

Provide a comprehensive analysis including:
1. Document type and purpose
2. Key parties involved
3. Main clauses and their implications
4. Summary of rights and obligations
5. Important dates and deadlines

Format your response in a well-structured manner with markdown headings.
` + plainText,
	},
	Risk: {
		System: `You are an expert legal AI assistant. Conduct a thorough risk assessment of the following legal document:`,
		User: `{{document}}

Provide:
1. Identification of high-risk clauses (with clause number/reference)
2. Missing important clauses or protections
3. Ambiguous or vague language that could create legal uncertainties
4. Compliance issues with common regulations
5. Overall risk score (1-10, where 10 is highest risk), written exactly as "Risk Score: N/10"
6. Specific recommendations to mitigate identified risks

Format your response in a well-structured manner with markdown headings.
` + plainText,
	},
	Generate: {
		System: `You are an expert legal document generator. Create a professional {{type}} with the following parameters:`,
		User: `{{parameters}}

The document should:
1. Follow standard legal formatting and structure
2. Include all necessary clauses for this type of agreement
3. Be compliant with common legal requirements
4. Use clear, precise legal language
5. Include proper signature blocks and date fields

Format your response in a well-structured manner with markdown headings.
` + plainText,
	},
	Research: {
		System: `You are an expert legal research assistant. The user is looking for legal precedents and case law related to:`,
		User: `"{{query}}"

Jurisdiction: {{jurisdiction}}
Timeframe: {{timeframe}}

Provide:
1. Most relevant case names and citations (at least 3-5 if available)
2. Brief summary of each case's ruling and significance
3. How these precedents might apply to similar situations
4. Any conflicting rulings or jurisdictional differences

Format your response in a well-structured manner with markdown.
` + plainText,
	},
}
