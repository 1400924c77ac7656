// Package knowledge holds the immutable portfolio knowledge base.
//
// The knowledge base is a fixed text block describing the subject's profile,
// skills, and projects. It is compiled into the binary and injected into
// every prompt the assembler builds; nothing in this package performs I/O.
package knowledge

// Base returns the complete knowledge base text.
func Base() string {
	return base
}

const base = `
# PERSONAL AND PROFESSIONAL INFORMATION: ESTEBAN ORTIZ

## PROFILE
- **Name**: Esteban Ortiz
- **Role**: Junior AI Developer
- **Location**: Pereira, Colombia
- **About**: Passionate about generative AI, exploring the boundary between creativity and technology
- **Traits**: Curious, self-taught, innovative, persistent
- **Email**: esteban.ortiz.dev@gmail.com
- **GitHub**: https://github.com/EstebanDevJR
- **LinkedIn**: https://www.linkedin.com/in/esteban-ortiz-restrepo
- **Instagram**: @esteban_ortiz_0

## EDUCATION
- **2023 - present**: Software Development Technology - Universidad Tecnológica de Pereira
- **2021 - 2022**: Commercial Advisory Technician - SENA

## CURRENT COURSES
- **January 2025 - present**: LLM Engineering: Master AI, Language Models, and Agents
- **February 2025 - present**: Bootcamp 2025 Generative AI, LLM Apps, AI Agents, AI Cursor

## TECHNOLOGY STACK

### Programming Languages
- **Python**: Intermediate (8 months of experience) - AI/ML specialty
- **Java**: Basic
- **JavaScript**: Basic (4 months)
- **TypeScript**: Basic (4 months)
- **HTML/CSS**: Basic

### AI and Machine Learning
- **OpenAI API**: Intermediate (8 months)
- **LangChain**: Learning (6 months)
- **HuggingFace**: Intermediate
- **MCP (Model Context Protocol)**: Basic
- **AWS Bedrock**: Learning
- **AWS SageMaker**: Learning
- **Fine-tuning**: Learning (5 months)
- **RAG**: Learning (5 months)
- **Sentence Transformers**: Intermediate

### Databases
- **PostgreSQL**: Intermediate
- **Vector databases**: FAISS, ChromaDB, Pinecone (5 months)
- **Supabase**: Intermediate

### Frameworks and Tools
- **FastAPI**: Learning (2 months)
- **React**: Basic (4 months)
- **Next.js**: Basic
- **Streamlit**: Intermediate
- **Gradio**: Intermediate
- **Node.js**: Basic (4 months)

### Cloud and DevOps
- **AWS**: Learning (2 months) - Textract, Bedrock, SageMaker
- **Azure**: Learning (1 month)
- **Docker**: Basic

### Other
- **Git/GitHub**: Intermediate
- **n8n**: Basic (automation)
- **ElevenLabs**: Voice synthesis
- **Pandas**: Data analysis
- **PyPDF2**: Document processing

## PROJECTS

### 1. LegalGPT (In development - 50%)
**Description**: Automated legal advisor for Colombian SMBs that do not understand contracts, labor law, or tax law.
**Technologies**: Python, React, OpenAI, Fine-tuning, RAG, LangChain, Pinecone, FastAPI, Supabase, TypeScript
**Status**: In active development
**Impact**: Democratize access to legal advice for small businesses

### 2. Intelligent ATS (In development - 10%)
**Description**: Applicant tracking system with AI agents for CV processing, candidate classification, and HR assistance.
**Technologies**: Python, Streamlit, OpenAI, Fine-tuning, RAG, LangChain, Pinecone, FastAPI, Supabase, n8n workflows, WhatsApp bot, multi-agent system, email notifications
**Status**: Early development
**Features**: Multi-agent, WhatsApp integration, full automation

### 3. CV Analyzer (Completed - 100%)
**Description**: Intelligent résumé analyzer that uses RAG and fine-tuning for detailed analysis, job recommendations, and career roadmaps.
**Technologies**: Python, Streamlit, OpenAI, Fine-tuning, RAG, LangChain, ChromaDB, pandas, PyPDF2, AWS Textract
**Status**: Completed and functional
**Achievements**: Complete analysis and recommendation system

### 4. DocumentAssistant-AI (Completed - 100%)
**Description**: Multimodal assistant that analyzes documents (PDF, CSV, Excel) and holds intelligent conversations with voice synthesis.
**Technologies**: Python, Gradio, LangChain, OpenAI, AWS Textract, Pandas, ElevenLabs, PyPDF2
**Status**: Completed
**Features**: Multimodal, voice synthesis, multiple document formats

### 5. LLM Conversational Demo (Completed - 100%)
**Description**: Application enabling conversations between multiple AI models (GPT-4o-mini, Claude, DeepSeek) with ElevenLabs voice synthesis.
**Technologies**: Python, OpenAI, ElevenLabs, DeepSeek, Gradio
**Status**: Completed
**Features**: Multi-model, optimized voice synthesis, intelligent splitting

## SPECIALIZATIONS

### RAG (Retrieval-Augmented Generation)
- **Experience**: 5 months implementing RAG systems
- **Technologies**: Embeddings, Pinecone, ChromaDB, FAISS
- **Applications**: Enterprise Q&A, specialized chatbots, documentation assistants

### Model Fine-tuning
- **Experience**: 5 months customizing language models
- **Models**: GPT-3.5, GPT-4o-mini
- **Applications**: LegalGPT (Colombian legal context), CV Analyzer, ATS

### Multimodal Development
- **Experience**: Processing text, images, and documents
- **Tools**: AWS Textract, computer vision, OCR
- **Applications**: DocumentAssistant-AI, enterprise chatbot

## LANGUAGES
- **Spanish**: Native
- **English**: Basic-Intermediate

## LEARNING APPROACH
- **Method**: Self-taught with a practical focus
- **Dedication**: 2 hours of daily study
- **Philosophy**: "Learn by doing" - every project has a real application
- **Current focus**: Building LLM-powered applications

## GOALS AND MOTIVATION
- Explore the boundary between creativity and technology
- Solve real problems with social impact (especially for the Colombian/Latin American market)
- Democratize access to intelligent tools
- Build AI solutions that create real value in business environments

## AVAILABILITY
- Open to collaboration and new opportunities
- Interested in generative AI projects
- Available for remote work and on-site work in Pereira, Colombia
- Focused on projects combining technical innovation with practical applicability
`

// Summary describes the knowledge base at a glance.
type Summary struct {
	ProjectsTotal      int            `json:"projects_total"`
	ProjectsCompleted  int            `json:"projects_completed"`
	ProjectsInProgress int            `json:"projects_in_progress"`
	MainTechnologies   []string       `json:"main_technologies"`
	Specializations    []string       `json:"specializations"`
	ExperienceMonths   map[string]int `json:"experience_months"`
	Location           string         `json:"location"`
	Status             string         `json:"status"`
}

// Summarize returns a fixed summary of the knowledge base. The counts mirror
// the project list in Base and must be updated together with it.
func Summarize() Summary {
	return Summary{
		ProjectsTotal:      5,
		ProjectsCompleted:  3,
		ProjectsInProgress: 2,
		MainTechnologies:   []string{"Python", "OpenAI API", "LangChain", "FastAPI", "React"},
		Specializations:    []string{"RAG", "Fine-tuning", "Multimodal AI"},
		ExperienceMonths: map[string]int{
			"python":      8,
			"openai":      8,
			"langchain":   6,
			"rag":         5,
			"fine_tuning": 5,
		},
		Location: "Pereira, Colombia",
		Status:   "Available for collaboration",
	}
}
