package report

import (
	"idcardocr/internal/platform/logger"
	"idcardocr/internal/services/recognize/domain"
)

// ConsoleSummary logs the short end of run summary
func ConsoleSummary(log *logger.Logger, st domain.Stats, files Files) {
	log = logger.OrNamed(log, "report")
	log.Info().Msg(rule6)
	log.Info().Msg("处理摘要 / PROCESSING SUMMARY")
	log.Info().Msg(rule6)
	log.Info().Int("total_persons", st.TotalPersons).Msgf("总处理人数:        %d", st.TotalPersons)
	log.Info().Int("both_sides_success", st.BothSidesSuccess).Msgf("正反面均成功:      %d", st.BothSidesSuccess)
	log.Info().Int("front_only_success", st.FrontOnlySuccess).Msgf("仅正面成功:        %d", st.FrontOnlySuccess)
	log.Info().Int("back_only_success", st.BackOnlySuccess).Msgf("仅背面成功:        %d", st.BackOnlySuccess)
	log.Info().Int("both_sides_failed", st.BothSidesFailed).Msgf("完全失败:          %d", st.BothSidesFailed)
	log.Info().Int("successful_calls", st.SuccessfulCalls).Msgf("API调用成功:       %d", st.SuccessfulCalls)
	log.Info().Int("failed_calls", st.FailedCalls).Msgf("API调用失败:       %d", st.FailedCalls)
	log.Info().Msg(thin6)
	log.Info().Str("csv", files.CSV).Msgf("结果已保存至:      %s", files.CSV)
	log.Info().Str("summary", files.Summary).Msgf("摘要已保存至:      %s", files.Summary)
	log.Info().Msg(rule6)
}
