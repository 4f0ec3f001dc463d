package model

// EstadoClase статус занятия (clase)
type EstadoClase string

const (
	EstadoBorrador      EstadoClase = "borrador"       // Создано, гида нет
	EstadoGenerandoGuia EstadoClase = "generando_guia" // ИИ генерирует гид
	EstadoEditandoGuia  EstadoClase = "editando_guia"  // Учитель правит гид
	EstadoGuiaAprobada  EstadoClase = "guia_aprobada"  // Гид утверждён

	EstadoQuizPreGenerando  EstadoClase = "quiz_pre_generando"
	EstadoQuizPreEnviado    EstadoClase = "quiz_pre_enviado"
	EstadoEnClase           EstadoClase = "en_clase"
	EstadoQuizPostGenerando EstadoClase = "quiz_post_generando"
	EstadoQuizPostEnviado   EstadoClase = "quiz_post_enviado"

	EstadoAnalizandoResultados EstadoClase = "analizando_resultados"
	EstadoCompletada           EstadoClase = "completada"

	EstadoCancelada    EstadoClase = "cancelada"
	EstadoReprogramada EstadoClase = "reprogramada"
)

// Stage укрупнённая стадия жизненного цикла занятия
type Stage string

const (
	StageGuia         Stage = "guia"
	StageEvaluaciones Stage = "evaluaciones"
	StageCierre       Stage = "cierre"
	StageOtros        Stage = "otros"
)

// PreparationCategory группа алертов на дашборде
type PreparationCategory string

const (
	CategoryGuiaPendiente     PreparationCategory = "guia_pendiente"
	CategoryEvalPrePendiente  PreparationCategory = "eval_pre_pendiente"
	CategoryEvalPostPendiente PreparationCategory = "eval_post_pendiente"
	CategoryOtros             PreparationCategory = "otros"
)

// stageTable единственная таблица классификации статусов
var stageTable = map[EstadoClase]Stage{
	EstadoBorrador:      StageGuia,
	EstadoGenerandoGuia: StageGuia,
	EstadoEditandoGuia:  StageGuia,
	EstadoGuiaAprobada:  StageGuia,

	EstadoQuizPreGenerando:  StageEvaluaciones,
	EstadoQuizPreEnviado:    StageEvaluaciones,
	EstadoEnClase:           StageEvaluaciones,
	EstadoQuizPostGenerando: StageEvaluaciones,
	EstadoQuizPostEnviado:   StageEvaluaciones,

	EstadoAnalizandoResultados: StageCierre,
	EstadoCompletada:           StageCierre,

	EstadoCancelada:    StageOtros,
	EstadoReprogramada: StageOtros,
}

var preQuizStates = map[EstadoClase]bool{
	EstadoQuizPreGenerando: true,
	EstadoQuizPreEnviado:   true,
}

var postQuizStates = map[EstadoClase]bool{
	EstadoQuizPostGenerando: true,
	EstadoQuizPostEnviado:   true,
}

// AllEstados возвращает весь словарь статусов
func AllEstados() []EstadoClase {
	return []EstadoClase{
		EstadoBorrador, EstadoGenerandoGuia, EstadoEditandoGuia, EstadoGuiaAprobada,
		EstadoQuizPreGenerando, EstadoQuizPreEnviado, EstadoEnClase,
		EstadoQuizPostGenerando, EstadoQuizPostEnviado,
		EstadoAnalizandoResultados, EstadoCompletada,
		EstadoCancelada, EstadoReprogramada,
	}
}

// IsValid проверяет что статус входит в словарь
func (e EstadoClase) IsValid() bool {
	_, ok := stageTable[e]
	return ok
}

// Stage возвращает стадию статуса, неизвестный статус считается guia
func (e EstadoClase) Stage() Stage {
	if stage, ok := stageTable[e]; ok {
		return stage
	}
	return StageGuia
}

// GetClassStage классифицирует статус, nil и пустая строка -> guia
func GetClassStage(estado *string) Stage {
	if estado == nil {
		return StageGuia
	}
	return EstadoClase(*estado).Stage()
}

func IsPreparationStage(e EstadoClase) bool { return e.Stage() == StageGuia }

func IsEvaluationStage(e EstadoClase) bool { return e.Stage() == StageEvaluaciones }

func IsClosureStage(e EstadoClase) bool { return e.Stage() == StageCierre }

func IsPreQuizState(e EstadoClase) bool { return preQuizStates[e] }

func IsPostQuizState(e EstadoClase) bool { return postQuizStates[e] }

// GetPreparationCategory определяет группу алерта для дашборда
func GetPreparationCategory(e EstadoClase) PreparationCategory {
	switch {
	case e == EstadoGuiaAprobada || IsPreQuizState(e):
		return CategoryEvalPrePendiente
	case e == EstadoEnClase || IsPostQuizState(e):
		return CategoryEvalPostPendiente
	case IsPreparationStage(e):
		return CategoryGuiaPendiente
	}
	return CategoryOtros
}

// EstadoDisplay представляет отображение статуса занятия
type EstadoDisplay struct {
	Emoji string
	Text  string
}

// GetEstadoDisplay возвращает emoji и подпись статуса
func GetEstadoDisplay(e EstadoClase) EstadoDisplay {
	displays := map[EstadoClase]EstadoDisplay{
		EstadoBorrador:             {"📝", "Borrador"},
		EstadoGenerandoGuia:        {"⏳", "Generando guía"},
		EstadoEditandoGuia:         {"✏️", "Editando guía"},
		EstadoGuiaAprobada:         {"✅", "Guía aprobada"},
		EstadoQuizPreGenerando:     {"⏳", "Generando quiz previo"},
		EstadoQuizPreEnviado:       {"📨", "Quiz previo enviado"},
		EstadoEnClase:              {"🏫", "En clase"},
		EstadoQuizPostGenerando:    {"⏳", "Generando quiz posterior"},
		EstadoQuizPostEnviado:      {"📨", "Quiz posterior enviado"},
		EstadoAnalizandoResultados: {"📊", "Analizando resultados"},
		EstadoCompletada:           {"✔️", "Completada"},
		EstadoCancelada:            {"❌", "Cancelada"},
		EstadoReprogramada:         {"🔁", "Reprogramada"},
	}

	if display, ok := displays[e]; ok {
		return display
	}

	return EstadoDisplay{"❓", "Desconocido"}
}
