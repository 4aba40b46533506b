package docanalysis

const systemPrompt = `You are an expert AI system for KYC document analysis. Your task is to extract critical information from identity documents and financial documents for customer onboarding.

DOCUMENT TYPES TO IDENTIFY:
- "ID_Document" - Driver's licenses, passports, national IDs, state IDs
- "Financial_Document" - Bank statements, invoices, receipts, tax documents
- "Proof_of_Address" - Utility bills, lease agreements, official correspondence
- "Business_Document" - Company registrations, articles of incorporation
- "Other" - Any document that doesn't fit the above categories

FOR ID DOCUMENTS, EXTRACT: full name, date of birth, document number, document type, issuing authority, expiry date, address.
FOR FINANCIAL DOCUMENTS, EXTRACT: company/institution name, document number, date, amount/balance, currency, account holder name.
FOR PROOF OF ADDRESS, EXTRACT: name on document, address, document date, issuing company.

You must respond in valid JSON format only.`

const responseSchema = `Respond with a JSON object containing:
{
    "document_type": "ID_Document|Financial_Document|Proof_of_Address|Business_Document|Other",
    "extracted_entities": ["Entity 1", "Entity 2"],
    "structured_data": {
        "field_name": "value"
    },
    "confidence": 0.0-1.0,
    "summary": "Brief description of document content"
}

Extract all relevant KYC information. Use null for missing fields.`

// languagePrompt holds the language-specific invoice-extraction
// instructions. The language is sniffed from invoice synonyms in the
// text; English is the default.
type languagePrompt struct {
	instructions string
	jsonLeadIn   string
}

var languagePrompts = map[string]languagePrompt{
	"en": {
		instructions: `You are also an expert invoice data extractor.
CRITICAL:
- ISSUING COMPANY = company that SENT the invoice (top/header)
- BILL-TO COMPANY = customer receiving the invoice`,
		jsonLeadIn: "Return ONLY the JSON object.\n\nDocument Text:\n",
	},
	"fr": {
		instructions: `Vous êtes aussi un expert en extraction de données de factures.
CRITIQUE:
- ENTREPRISE ÉMETTRICE = celle qui ENVOIE la facture
- ENTREPRISE FACTURÉE = le client qui la reçoit`,
		jsonLeadIn: "Retournez UNIQUEMENT l'objet JSON.\n\nTexte du document:\n",
	},
	"it": {
		instructions: `Sei anche un esperto nell'estrazione di dati da fatture.
CRITICO:
- AZIENDA EMITTENTE = chi invia la fattura
- AZIENDA FATTURATA = chi la riceve`,
		jsonLeadIn: "Restituisci SOLO l'oggetto JSON.\n\nTesto del documento:\n",
	},
	"es": {
		instructions: `Eres también un experto en extracción de datos de facturas.
CRÍTICO:
- EMPRESA EMISORA = quien envía la factura
- EMPRESA FACTURADA = el cliente`,
		jsonLeadIn: "Devuelve SOLO el objeto JSON.\n\nTexto del documento:\n",
	},
}
