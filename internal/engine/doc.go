// Package engine рендерит шаблоны удалённых команд.
//
// Команды deploy и purge задаются Go templates и рендерятся
// для каждого хоста перед выполнением:
//
//	echo {{ quote .URL }} | ec_purge_small
//	cd {{ quote .Env.MakeDir }} && make release REF={{ quote .Ref }}
//
// Значения, подставляемые в командную строку, нужно экранировать через quote.
package engine
